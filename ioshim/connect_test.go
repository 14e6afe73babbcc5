// File: ioshim/connect_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ioshim

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func loopbackAddr(port int) *unix.SockaddrInet4 {
	return &unix.SockaddrInet4{Port: port, Addr: [4]byte{127, 0, 0, 1}}
}

func TestConnect_Succeeds(t *testing.T) {
	r := newTestReactor(t, 2)

	listenFd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socket: %v", err)
	}
	defer unix.Close(listenFd)
	if err := unix.Bind(listenFd, loopbackAddr(0)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := unix.Listen(listenFd, 1); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	sa, err := unix.Getsockname(listenFd)
	if err != nil {
		t.Fatalf("Getsockname: %v", err)
	}
	port := sa.(*unix.SockaddrInet4).Port

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socket: %v", err)
	}
	fdctxSetup(fd)

	result := make(chan error, 1)
	Spawn(r, func() {
		result <- Connect(fd, loopbackAddr(port))
	})

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Connect: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("connect never returned")
	}
	unix.Close(fd)
}

func TestConnect_Refused(t *testing.T) {
	r := newTestReactor(t, 2)

	// Bind an ephemeral loopback port, read back its number, then close
	// it immediately so nothing is listening there: connecting to it
	// must come back ECONNREFUSED instead of hanging.
	probeFd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socket: %v", err)
	}
	if err := unix.Bind(probeFd, loopbackAddr(0)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	sa, err := unix.Getsockname(probeFd)
	if err != nil {
		t.Fatalf("Getsockname: %v", err)
	}
	port := sa.(*unix.SockaddrInet4).Port
	unix.Close(probeFd)

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socket: %v", err)
	}
	fdctxSetup(fd)

	result := make(chan error, 1)
	Spawn(r, func() {
		result <- ConnectWithTimeout(fd, loopbackAddr(port), 2*time.Second)
	})

	select {
	case err := <-result:
		if err != unix.ECONNREFUSED {
			t.Fatalf("ConnectWithTimeout: got %v, want ECONNREFUSED", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("connect never returned")
	}
	unix.Close(fd)
}
