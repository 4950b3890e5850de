package sockets

import "time"

func WithPingIntervalSec(p int) func(*Conn) {
	return func(s *Conn) {
		s.pingIntervalSecs = p
	}
}

func WithPingMsg(msg []byte) func(*Conn) {
	return func(s *Conn) {
		s.pingMsg = msg
	}
}

func WithHandshakeTimeout(d time.Duration) func(*Conn) {
	return func(s *Conn) {
		s.handshakeTimeout = d
	}
}

func InsecureSkipVerify() func(*Conn) {
	return func(s *Conn) {
		s.sslSkipVerify = true
	}
}

// OnMessage is called from the read loop, in order, for every message.
func OnMessage(f func([]byte, Connection)) func(*Conn) {
	return func(s *Conn) {
		s.onMessage = f
	}
}

// OnError is called once when the connection drops without Close.
func OnError(f func(error)) func(*Conn) {
	return func(s *Conn) {
		s.onError = f
	}
}

func OnConnected(f func(Connection)) func(*Conn) {
	return func(s *Conn) {
		s.onConnected = f
	}
}
