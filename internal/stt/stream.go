package stt

import (
	"bytes"
	"context"
	"errors"
	"io"
)

// DefaultChunkSize is the read size used when adapting an io.Reader.
const DefaultChunkSize = 4096

// AudioStream yields audio chunks in capture order. Next returns io.EOF once
// the capture is complete; a chunk returned together with io.EOF is still data.
type AudioStream interface {
	Next(ctx context.Context) ([]byte, error)
}

// StreamFunc adapts a function to AudioStream.
type StreamFunc func(ctx context.Context) ([]byte, error)

func (f StreamFunc) Next(ctx context.Context) ([]byte, error) { return f(ctx) }

// SliceStream yields the given chunks and then io.EOF.
func SliceStream(chunks ...[]byte) AudioStream {
	i := 0
	return StreamFunc(func(ctx context.Context) ([]byte, error) {
		if i >= len(chunks) {
			return nil, io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	})
}

// ChanStream yields chunks received from ch until it is closed.
func ChanStream(ch <-chan []byte) AudioStream {
	return StreamFunc(func(ctx context.Context) ([]byte, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case c, ok := <-ch:
			if !ok {
				return nil, io.EOF
			}
			return c, nil
		}
	})
}

// ReaderStream reads r in chunks of at most chunkSize bytes.
func ReaderStream(r io.Reader, chunkSize int) AudioStream {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)
	return StreamFunc(func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(buf)
		chunk := bytes.Clone(buf[:n])
		if errors.Is(err, io.EOF) {
			return chunk, io.EOF
		}
		return chunk, err
	})
}

// drain concatenates every chunk of s in order.
func drain(ctx context.Context, s AudioStream) ([]byte, error) {
	var buf bytes.Buffer
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := s.Next(ctx)
		buf.Write(chunk)
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
