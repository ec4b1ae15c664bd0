package comm_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/lightsheet-lab/zsweep/comm"
)

func tcpEchoServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal("could not listen, test aborted:", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() { io.Copy(conn, conn) }()
		}
	}()
	return ln.Addr().String()
}

func TestPoolHandsOutToCapacity(t *testing.T) {
	addr := tcpEchoServer(t)
	maker := func() (io.ReadWriteCloser, error) {
		return net.Dial("tcp", addr)
	}
	pool := comm.NewPool(3, time.Second, maker)
	for i := 0; i < 3; i++ {
		conn, err := pool.Get()
		if err != nil {
			t.Fatal("could not get connection:", err)
		}
		if conn == nil {
			t.Fatal("got nil connection without error")
		}
	}
	if pool.Active() != 3 {
		t.Errorf("expected 3 active connections, got %d", pool.Active())
	}
}

func TestPoolReusesReturnedConns(t *testing.T) {
	addr := tcpEchoServer(t)
	dials := 0
	maker := func() (io.ReadWriteCloser, error) {
		dials++
		return net.Dial("tcp", addr)
	}
	pool := comm.NewPool(3, time.Second, maker)
	for i := 0; i < 5; i++ {
		conn, err := pool.Get()
		if err != nil {
			t.Fatal("could not get connection:", err)
		}
		pool.Put(conn)
	}
	if dials != 1 {
		t.Errorf("expected a single dial for serial get/put, got %d", dials)
	}
}

func TestPoolBlocksWhenExhausted(t *testing.T) {
	addr := tcpEchoServer(t)
	maker := func() (io.ReadWriteCloser, error) {
		return net.Dial("tcp", addr)
	}
	pool := comm.NewPool(2, time.Second, maker)
	held := []io.ReadWriter{}
	for i := 0; i < 2; i++ {
		rw, err := pool.Get()
		if err != nil {
			t.Fatal("could not get connection:", err)
		}
		held = append(held, rw)
	}
	extra := make(chan io.ReadWriter, 1)
	go func() {
		rw, _ := pool.Get()
		extra <- rw
	}()
	select {
	case <-extra:
		t.Fatal("pool exceeded its size limit")
	case <-time.After(100 * time.Millisecond):
	}
	// returning one should unblock the waiter
	pool.Put(held[0])
	select {
	case <-extra:
	case <-time.After(time.Second):
		t.Fatal("waiter not handed the returned connection")
	}
}

func TestTerminatorFramesMessages(t *testing.T) {
	addr := tcpEchoServer(t)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	wrap := comm.NewTerminator(comm.NewTimeout(conn, time.Second), '\n', '\n')
	_, err = wrap.Write([]byte("POS? Z"))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := wrap.ReadMsg()
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "POS? Z" {
		t.Errorf("expected terminator-stripped echo, got %q", resp)
	}
}
