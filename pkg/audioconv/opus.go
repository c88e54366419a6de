//go:build opus

package audioconv

import (
	"fmt"
	"io"

	popus "github.com/pekim/opus"
)

const opusRate = 48000

func decodeOpus(r io.ReadSeeker) decoded {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return decoded{err: fmt.Errorf("opus: %w", err)}
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	var (
		pcm []float32
		buf = make([]int16, opusRate*ch/2)
	)
	for {
		// n counts samples per channel.
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, Int16ToFloat(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return decoded{err: fmt.Errorf("opus: %w", err)}
		}
	}

	return decoded{samples: pcm, channels: ch, rate: opusRate}
}
