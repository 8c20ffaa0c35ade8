package chat

import "unicode/utf8"

// utf8Decoder convierte chunks de bytes en texto sin partir runas: si un
// chunk termina a mitad de una secuencia multibyte, esos bytes quedan
// pendientes hasta el proximo chunk.
type utf8Decoder struct {
	pending []byte
}

func (d *utf8Decoder) Decode(p []byte) string {
	data := make([]byte, 0, len(d.pending)+len(p))
	data = append(data, d.pending...)
	data = append(data, p...)

	cut := len(data)
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				cut = i
			}
			break
		}
	}

	d.pending = append(d.pending[:0], data[cut:]...)
	return string(data[:cut])
}

// Flush devuelve lo que quedo pendiente al cerrar el stream.
func (d *utf8Decoder) Flush() string {
	out := string(d.pending)
	d.pending = d.pending[:0]
	return out
}
