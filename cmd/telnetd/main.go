package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/drake/telnetcore/engine"
	"github.com/drake/telnetcore/internal/queue"
	"github.com/drake/telnetcore/option"
)

var addr = flag.String("addr", ":4000", "address to listen on")

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer ln.Close()

	logger := log.New(os.Stdout, "telnetd: ", log.LstdFlags)
	logger.Printf("listening on %s", *addr)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logger.Printf("accept: %v", err)
				continue
			}
		}
		go serve(conn, logger)
	}
}

// newHandlers builds the full option roster for one connection. Each
// connection gets its own handler instances since handlers carry
// per-connection negotiation state.
func newHandlers() []option.Handler {
	return []option.Handler{
		option.NewSGA(),
		option.NewNAWS(),
		option.NewCharset(),
		option.NewMTTS(),
		option.NewMSSP(),
		option.NewGMCP(),
		option.NewMCCP2(),
		option.NewMCCP3(),
		option.NewLinemode(),
		option.NewEOR(),
	}
}

// serve drives one connection's engine. The engine itself is
// single-threaded and synchronous; this loop is the thread that owns
// it, reading from the socket and feeding ReceiveData, then draining
// and handing queued output to a second goroutine that owns the
// blocking writes.
func serve(conn net.Conn, logger *log.Logger) {
	defer conn.Close()

	eng := engine.New(engine.Config{Handlers: newHandlers(), Logger: logger})

	writes, outbound := queue.Unbounded[[]byte](16, 256)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for chunk := range outbound {
			if _, err := conn.Write(chunk); err != nil {
				return
			}
		}
	}()

	eng.SetCallbacks(engine.Callbacks{
		Line: func(line string) {
			logger.Printf("%s: line %q", conn.RemoteAddr(), line)
		},
		ChangeCapabilities: func(key string, value any) {
			logger.Printf("%s: capability %s=%v", conn.RemoteAddr(), key, value)
		},
		GMCP: func(command string, data any) {
			logger.Printf("%s: gmcp %s %v", conn.RemoteAddr(), command, data)
		},
	})

	eng.Start()
	flush(eng, writes)

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, rerr := eng.ReceiveData(buf[:n]); rerr != nil {
				logger.Printf("%s: receive: %v", conn.RemoteAddr(), rerr)
				break
			}
			flush(eng, writes)
		}
		if err != nil {
			break
		}
	}

	close(writes)
	<-writerDone
}

func flush(eng *engine.Engine, writes chan<- []byte) {
	if out := eng.Drain(); len(out) > 0 {
		writes <- out
	}
}
