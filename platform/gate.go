package platform

// bitReg is the slice of a memory-mapped register a clockGate touches.
type bitReg interface {
	Get() uint32
	SetBits(value uint32)
	ClearBits(value uint32)
}

type gatedBits struct {
	reg  bitReg
	mask uint32
	kept uint32
}

// clockGate stops peripheral clocks across deep sleep. Suspend clears each
// masked enable field and remembers which bits were set; Resume restores
// exactly those.
type clockGate struct {
	name  string
	bits  []gatedBits
	count uint32
}

func newClockGate(name string) *clockGate { return &clockGate{name: name} }

func (g *clockGate) add(reg bitReg, mask uint32) *clockGate {
	if mask != 0 {
		g.bits = append(g.bits, gatedBits{reg: reg, mask: mask})
	}
	return g
}

func (g *clockGate) Suspend() {
	for i := range g.bits {
		b := &g.bits[i]
		b.kept = b.reg.Get() & b.mask
		b.reg.ClearBits(b.mask)
	}
	g.count++
}

func (g *clockGate) Resume() {
	for i := len(g.bits) - 1; i >= 0; i-- {
		b := &g.bits[i]
		if b.kept != 0 {
			b.reg.SetBits(b.kept)
		}
	}
}

func (g *clockGate) String() string { return g.name }
