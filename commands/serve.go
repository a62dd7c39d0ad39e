package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// MaxRequestSize bounds one request line. write_file and write_temp_pdf
// carry whole documents as base64.
const MaxRequestSize = 256 << 20

// Request is one line on the serve loop's input.
type Request struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// Response carries exactly one of Result or Error. ID echoes the request.
type Response struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Server reads newline delimited JSON requests and answers each on its own
// goroutine, so a request stuck behind an administrator prompt does not
// hold up locks or file reads. Responses may arrive out of order.
type Server struct {
	Service *Service
	// MaxConcurrent bounds running requests per pool. Elevating commands
	// and everything else have separate pools, and waiting for a slot
	// never stops input from being read. Zero means no bound.
	MaxConcurrent int
	Verbosity     int
}

// Serve runs until in reaches EOF or ctx is cancelled, then waits for
// outstanding requests and releases every lock. Cancellation is a clean
// shutdown and returns nil.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	general := newSlots(s.MaxConcurrent)
	elevated := newSlots(s.MaxConcurrent)
	var g errgroup.Group

	var mu sync.Mutex
	enc := json.NewEncoder(out)
	write := func(resp Response) error {
		mu.Lock()
		defer mu.Unlock()
		return enc.Encode(resp)
	}

	// The reader may stay blocked on in after a cancel; stop lets it exit
	// as soon as its next line arrives.
	lines := make(chan []byte)
	stop := make(chan struct{})
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxRequestSize)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			select {
			case lines <- line:
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	var scanErr error
read:
	for {
		select {
		case <-ctx.Done():
			if s.Verbosity >= 1 {
				log.Printf("Stopped reading requests: %v", ctx.Err())
			}
			break read
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					scanErr = fmt.Errorf("failed to read request: %w", err)
				}
				break read
			}
			req, err := decodeRequest(line)
			if err != nil {
				g.Go(func() error {
					return write(Response{ID: json.RawMessage("null"), Error: err.Error()})
				})
				continue
			}
			slots := general
			if s.Service.Elevates(req.Command) {
				slots = elevated
			}
			g.Go(func() error {
				release, err := slots.acquire(ctx)
				if err != nil {
					return write(Response{ID: req.ID, Error: fmt.Sprintf("%s not started: %v", req.Command, err)})
				}
				defer release()
				return write(s.handle(ctx, req))
			})
		}
	}
	close(stop)

	waitErr := g.Wait()
	if s.Verbosity >= 1 {
		log.Printf("Input closed, releasing %d lock(s)", len(s.Service.Locks.Paths()))
	}
	closeErr := s.Service.Close()
	return errors.Join(scanErr, waitErr, closeErr)
}

func decodeRequest(line []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}
	if len(req.ID) == 0 {
		req.ID = json.RawMessage("null")
	}
	return req, nil
}

func (s *Server) handle(ctx context.Context, req Request) Response {
	resp := Response{ID: req.ID}
	result, err := s.Service.Dispatch(ctx, req.Command, req.Args)
	if err != nil {
		if s.Verbosity >= 1 {
			log.Printf("%s failed: %v", req.Command, err)
		}
		resp.Error = err.Error()
		return resp
	}
	raw, err := json.Marshal(result)
	if err != nil {
		resp.Error = fmt.Sprintf("failed to encode result of %s: %v", req.Command, err)
		return resp
	}
	resp.Result = raw
	return resp
}

// slots bounds how many requests of one kind run at once. A nil
// semaphore is unbounded.
type slots struct {
	sem *semaphore.Weighted
}

func newSlots(n int) slots {
	if n <= 0 {
		return slots{}
	}
	return slots{sem: semaphore.NewWeighted(int64(n))}
}

func (s slots) acquire(ctx context.Context) (func(), error) {
	if s.sem == nil {
		return func() {}, nil
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { s.sem.Release(1) }, nil
}
