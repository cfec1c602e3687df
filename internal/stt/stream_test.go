package stt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestDrain_PreservesOrder(t *testing.T) {
	got, err := drain(context.Background(), SliceStream([]byte("AB"), []byte("CD")))
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if string(got) != "ABCD" {
		t.Errorf("drain = %q, want ABCD", got)
	}
}

func TestDrain_ChunkWithEOF(t *testing.T) {
	calls := 0
	s := StreamFunc(func(ctx context.Context) ([]byte, error) {
		calls++
		if calls == 1 {
			return []byte("xy"), nil
		}
		return []byte("z"), io.EOF
	})
	got, err := drain(context.Background(), s)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if string(got) != "xyz" {
		t.Errorf("drain = %q, want xyz", got)
	}
}

func TestDrain_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := drain(context.Background(), StreamFunc(func(ctx context.Context) ([]byte, error) {
		return nil, boom
	}))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestReaderStream(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 100)
	got, err := drain(context.Background(), ReaderStream(iotest.HalfReader(bytes.NewReader(payload)), 64))
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReaderStream lost data: got %d bytes, want %d", len(got), len(payload))
	}
}

func TestReaderStream_DataErrEOF(t *testing.T) {
	got, err := drain(context.Background(), ReaderStream(iotest.DataErrReader(strings.NewReader("abc")), 0))
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("drain = %q, want abc", got)
	}
}

func TestReaderStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReaderStream(strings.NewReader("abc"), 2).Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestChanStream(t *testing.T) {
	ch := make(chan []byte, 3)
	ch <- []byte("A")
	ch <- []byte("B")
	close(ch)

	got, err := drain(context.Background(), ChanStream(ch))
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if string(got) != "AB" {
		t.Errorf("drain = %q, want AB", got)
	}
}
