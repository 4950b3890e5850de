package registermap

var wallboxModels = map[int64]string{
	0x20ED: "AC007-00",
	0x20DA: "AC011E-01",
}

var wallboxCatalog = []Descriptor{
	text(KeySerialNumber, "Serial number", 21200, 10),
	input(KeyModelName, "Model name", 21223, UInt16).enum(wallboxModels),
}
