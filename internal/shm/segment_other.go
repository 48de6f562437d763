//go:build !unix

package shm

type Segment struct{}

func Create(dir, name string, size int, init func(mem []byte) error) (*Segment, error) {
	return nil, ErrUnsupported
}

func Open(dir, name string) (*Segment, error) { return nil, ErrUnsupported }

func Remove(dir, name string) error { return ErrUnsupported }

func (s *Segment) Name() string          { return "" }
func (s *Segment) Path() string          { return "" }
func (s *Segment) Size() int             { return 0 }
func (s *Segment) Lock() ([]byte, error) { return nil, ErrUnsupported }
func (s *Segment) Unlock() error         { return ErrUnsupported }
func (s *Segment) Close() error          { return nil }
func (s *Segment) Remove() error         { return ErrUnsupported }
