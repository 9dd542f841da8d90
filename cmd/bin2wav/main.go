// Command bin2wav converts a BK-0010 tape BIN file (§6.4: a 2-byte load
// address, a 2-byte length, and the payload bytes; every byte of the file
// is encoded as is) into a WAV file carrying the same Kansas-City-style FSK
// encoding a real tape deck would have played: one cycle of a low tone for
// a 0 bit, one cycle of a high tone (twice the frequency) for a 1 bit, most
// significant bit first, byte by byte.
package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	sampleRate = 22050
	bitDepth   = 16

	freqZero = 1200.0 // Hz, one cycle per 0 bit
	freqOne  = 2400.0 // Hz, one cycle per 1 bit

	amplitude = 0.8

	leaderSeconds = 2.0
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: bin2wav <input.bin> <output.wav>")
		os.Exit(1)
	}

	payload, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "bin2wav: %v\n", err)
		os.Exit(1)
	}

	samples := encode(payload)

	out, err := os.Create(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "bin2wav: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	enc := wav.NewEncoder(out, sampleRate, bitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   samples,
	}
	if err := enc.Write(buf); err != nil {
		fmt.Fprintf(os.Stderr, "bin2wav: %v\n", err)
		os.Exit(1)
	}
	if err := enc.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "bin2wav: %v\n", err)
		os.Exit(1)
	}
}

// encode renders a square-wave leader tone followed by every byte of
// payload, most significant bit first.
func encode(payload []byte) []int {
	var samples []int
	samples = appendTone(samples, freqOne, leaderSeconds)

	for _, b := range payload {
		for bit := 7; bit >= 0; bit-- {
			freq := freqZero
			if b&(1<<uint(bit)) != 0 {
				freq = freqOne
			}
			samples = appendCycle(samples, freq)
		}
	}
	return samples
}

// appendTone emits seconds worth of a steady square wave at freq.
func appendTone(samples []int, freq, seconds float64) []int {
	cycles := int(freq * seconds)
	for i := 0; i < cycles; i++ {
		samples = appendCycle(samples, freq)
	}
	return samples
}

// appendCycle emits exactly one square-wave period at freq: half a period
// high, half a period low, matching the FSK convention where bit value
// selects the period (and therefore the tone) of a single cycle.
func appendCycle(samples []int, freq float64) []int {
	framesPerCycle := int(float64(sampleRate) / freq)
	if framesPerCycle < 2 {
		framesPerCycle = 2
	}
	high := framesPerCycle / 2
	peak := int(amplitude * float64(int(1)<<(bitDepth-1)-1))

	for i := 0; i < framesPerCycle; i++ {
		if i < high {
			samples = append(samples, peak)
		} else {
			samples = append(samples, -peak)
		}
	}
	return samples
}
