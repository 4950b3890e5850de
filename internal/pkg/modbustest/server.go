// Package modbustest runs an in-process Modbus TCP device for tests.
package modbustest

import (
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tbrandon/mbserver"
)

const (
	fcReadHolding = 0x03
	fcReadInput   = 0x04
	fcWriteSingle = 0x06
)

// Request records one PDU the server received.
type Request struct {
	Unit     byte
	Function byte
	Address  uint16
	Value    uint16
}

// Server answers read input (4), read holding (3) and write single register
// (6) requests through mbserver. Unmapped addresses get exception 2.
//
// Clients connect through a front listener so Close can drop live
// connections, which mbserver itself leaves open. Response delays are applied
// there too, per connection, since mbserver answers every client from one
// goroutine.
type Server struct {
	mb      *mbserver.Server
	backend string
	ln      net.Listener

	mu         sync.Mutex
	input      map[uint16]struct{}
	holding    map[uint16]struct{}
	exceptions map[uint16]byte
	delay      time.Duration
	requests   []Request
	conns      map[net.Conn]struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewServer(tb testing.TB) *Server {
	tb.Helper()
	backend, err := reserveAddr()
	if err != nil {
		tb.Fatalf("modbustest: reserve: %v", err)
	}
	s := &Server{
		mb:         mbserver.NewServer(),
		backend:    backend,
		input:      map[uint16]struct{}{},
		holding:    map[uint16]struct{}{},
		exceptions: map[uint16]byte{},
		conns:      map[net.Conn]struct{}{},
	}
	s.mb.RegisterFunctionHandler(fcReadHolding, s.handle)
	s.mb.RegisterFunctionHandler(fcReadInput, s.handle)
	s.mb.RegisterFunctionHandler(fcWriteSingle, s.handle)
	if err := s.mb.ListenTCP(backend); err != nil {
		tb.Fatalf("modbustest: listen: %v", err)
	}

	s.ln, err = net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		s.mb.Close()
		tb.Fatalf("modbustest: listen: %v", err)
	}
	s.wg.Add(1)
	go s.accept()
	tb.Cleanup(s.Close)
	return s
}

func reserveAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return l.Addr().String(), nil
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Addr())
	return host
}

func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.Addr())
	p, _ := strconv.Atoi(port)
	return p
}

func (s *Server) SetInput(address uint16, words ...uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range words {
		s.input[address+uint16(i)] = struct{}{}
		s.mb.InputRegisters[address+uint16(i)] = w
	}
}

func (s *Server) SetHolding(address uint16, words ...uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range words {
		s.holding[address+uint16(i)] = struct{}{}
		s.mb.HoldingRegisters[address+uint16(i)] = w
	}
}

// SetInputString stores text high byte first, NUL padded to words.
func (s *Server) SetInputString(address uint16, text string, words int) {
	s.SetInput(address, EncodeString(text, words)...)
}

func (s *Server) Holding(address uint16) (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holding[address]; !ok {
		return 0, false
	}
	return s.mb.HoldingRegisters[address], true
}

// SetException makes any request touching address fail with code.
func (s *Server) SetException(address uint16, code byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions[address] = code
}

// SetDelay holds every response back by d.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Close stops accepting and drops every open connection.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		_ = s.ln.Close()
		s.mu.Lock()
		for c := range s.conns {
			_ = c.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
		s.mb.Close()
	})
}

func (s *Server) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		upstream, err := net.Dial("tcp", s.backend)
		if err != nil {
			_ = conn.Close()
			continue
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.conns[upstream] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.pipe(conn, upstream)
	}
}

func (s *Server) pipe(conn, upstream net.Conn) {
	defer s.wg.Done()
	done := make(chan struct{}, 2)
	go func() {
		_, _ = io.Copy(upstream, conn)
		done <- struct{}{}
	}()
	go func() {
		s.relay(conn, upstream)
		done <- struct{}{}
	}()
	<-done

	s.mu.Lock()
	delete(s.conns, conn)
	delete(s.conns, upstream)
	s.mu.Unlock()
	_ = conn.Close()
	_ = upstream.Close()
	<-done
}

// relay forwards responses to the client, holding each back by the delay.
func (s *Server) relay(dst, src net.Conn) {
	buf := make([]byte, 512)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			s.mu.Lock()
			delay := s.delay
			s.mu.Unlock()
			if delay > 0 {
				time.Sleep(delay)
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// handle logs the request and applies injected exceptions, then hands the
// frame to mbserver's stock register handlers.
func (s *Server) handle(mb *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	fc := frame.GetFunction()
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	fields := mbserver.BytesToUint16(data[:4])
	address, value := fields[0], fields[1]

	var unit byte
	if f, ok := frame.(*mbserver.TCPFrame); ok {
		unit = f.Device
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{Unit: unit, Function: fc, Address: address, Value: value})
	if exc := s.check(fc, address, value); exc != nil {
		return []byte{}, exc
	}
	switch fc {
	case fcReadHolding:
		return mbserver.ReadHoldingRegisters(mb, frame)
	case fcReadInput:
		return mbserver.ReadInputRegisters(mb, frame)
	case fcWriteSingle:
		s.holding[address] = struct{}{}
		return mbserver.WriteHoldingRegister(mb, frame)
	}
	return []byte{}, &mbserver.IllegalFunction
}

// check must be called with mu held.
func (s *Server) check(fc byte, address, value uint16) *mbserver.Exception {
	if fc == fcWriteSingle {
		if code, ok := s.exceptions[address]; ok {
			return exception(code)
		}
		return nil
	}
	if int(address)+int(value) > 65536 {
		return &mbserver.IllegalDataAddress
	}
	bank := s.input
	if fc == fcReadHolding {
		bank = s.holding
	}
	for i := uint16(0); i < value; i++ {
		if code, ok := s.exceptions[address+i]; ok {
			return exception(code)
		}
		if _, ok := bank[address+i]; !ok {
			return &mbserver.IllegalDataAddress
		}
	}
	return nil
}

func exception(code byte) *mbserver.Exception {
	e := mbserver.Exception(code)
	return &e
}

// EncodeString packs text into words high byte first, NUL padded.
func EncodeString(text string, words int) []uint16 {
	b := make([]byte, words*2)
	copy(b, text)
	return mbserver.BytesToUint16(b)
}
