package link

// MaxLine bounds an inbound line; bytes past it are dropped until LF.
const MaxLine = 64

// Port is the non-blocking byte stream under the link. Read is only called
// when Buffered reports pending bytes.
type Port interface {
	Buffered() int
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// LineReader accumulates lines from a Port without blocking: CR is ignored,
// LF ends a line, and lines are clamped to MaxLine bytes.
type LineReader struct {
	port   Port
	rx     [MaxLine]byte
	rpos   int
	rlen   int
	line   [MaxLine]byte
	n      int
	clamps uint32
	over   bool
}

func NewLineReader(p Port) *LineReader { return &LineReader{port: p} }

// Next returns the next complete line, if one is available now. The
// returned slice is valid until the following call.
func (r *LineReader) Next() ([]byte, bool) {
	for {
		if r.rpos == r.rlen {
			if r.port.Buffered() == 0 {
				return nil, false
			}
			n, err := r.port.Read(r.rx[:])
			if n <= 0 || err != nil {
				return nil, false
			}
			r.rpos, r.rlen = 0, n
		}
		c := r.rx[r.rpos]
		r.rpos++
		switch c {
		case '\n':
			out := r.line[:r.n]
			r.n, r.over = 0, false
			return out, true
		case '\r':
		default:
			if r.n < MaxLine {
				r.line[r.n] = c
				r.n++
			} else if !r.over {
				r.over = true
				r.clamps++
			}
		}
	}
}

// Clamped counts lines that exceeded MaxLine.
func (r *LineReader) Clamped() uint32 { return r.clamps }
