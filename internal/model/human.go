// human readable and writable stdlib types
// which can be used inside config file
package model

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// Path is a filesystem path with $VAR and ${VAR} expanded.
type Path string

func (p *Path) UnmarshalText(text []byte) error {
	if p == nil {
		return errors.New("can't unmarshal to nil")
	}
	*p = Path(os.ExpandEnv(string(text)))
	return nil
}

func (p Path) MarshalText() ([]byte, error) {
	return []byte(p), nil
}

// LoopbackAddr is a host:port which must not be reachable from other machines.
type LoopbackAddr struct {
	*net.TCPAddr
}

func (addr *LoopbackAddr) AsTCPAddr() *net.TCPAddr {
	return addr.TCPAddr
}

func (addr *LoopbackAddr) UnmarshalText(text []byte) error {
	if addr == nil {
		return errors.New("can't unmarshal to nil")
	}
	if len(text) == 0 {
		return errors.New("can't be empty")
	}
	expanded := os.ExpandEnv(string(text))
	host, _, err := net.SplitHostPort(expanded)
	if err != nil {
		return err
	}
	if host != "localhost" {
		if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
			return fmt.Errorf("%s is not a loopback address", host)
		}
	}
	parsed, err := net.ResolveTCPAddr("tcp", expanded)
	if err != nil {
		return err
	}
	addr.TCPAddr = parsed
	return nil
}

func (addr LoopbackAddr) MarshalText() ([]byte, error) {
	if addr.TCPAddr == nil {
		return []byte{}, nil
	}
	return []byte(addr.String()), nil
}
