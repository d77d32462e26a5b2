package xgate

import "strings"

const wordBits = 32

// BitMask is a word-granular bit vector with an explicit padding value: the
// conceptual value of every bit at index >= Size(). Padding is what lets masks
// of different provenance combine safely: a shorter operand is extended with
// its own padding, never the other operand's.
//
// BitMask is a value type. The boolean operators return new masks; SetBit,
// ClearBit, SetBits and ClearBits are the only in-place mutators.
type BitMask struct {
	padding bool
	words   []uint32
}

// Zeros and Ones are the canonical zero-length masks: the identity for Or and
// And respectively when combined with any mask.
var (
	Zeros = BitMask{}
	Ones  = BitMask{padding: true}
)

// NewBitMask builds a mask of the given size rounded up to the next multiple
// of 32, with every stored bit set to initial and the given padding value.
func NewBitMask(size int, initial, padding bool) (BitMask, error) {
	if size < 0 {
		return BitMask{}, ErrMaskSize
	}
	m := BitMask{padding: padding}
	n := (size + wordBits - 1) / wordBits
	if n > 0 {
		m.words = make([]uint32, n)
		if initial {
			for i := range m.words {
				m.words[i] = ^uint32(0)
			}
		}
	}
	return m, nil
}

// Size is the stored length in bits, always a multiple of 32.
func (m BitMask) Size() int { return len(m.words) * wordBits }

// Padding is the conceptual bit value at every index >= Size().
func (m BitMask) Padding() bool { return m.padding }

// IsBitSet tests the stored bit at i; i must be in [0, Size()).
func (m BitMask) IsBitSet(i int) (bool, error) {
	if i < 0 || i >= m.Size() {
		return false, ErrBitRange
	}
	return m.words[i/wordBits]&(1<<(i%wordBits)) != 0, nil
}

// IsBitCleared tests the complement of the stored bit at i; same bounds as
// IsBitSet.
func (m BitMask) IsBitCleared(i int) (bool, error) {
	set, err := m.IsBitSet(i)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Bit reports the effective value at i: the stored bit for i < Size(), the
// padding value beyond, false for negative i. This is the read the gate check
// uses; it cannot fail and does not allocate.
func (m BitMask) Bit(i int) bool {
	if i < 0 {
		return false
	}
	w := i / wordBits
	if w >= len(m.words) {
		return m.padding
	}
	return m.words[w]&(1<<(i%wordBits)) != 0
}

// SetBit sets the stored bit at i; i must be in [0, Size()).
func (m *BitMask) SetBit(i int) error {
	if i < 0 || i >= m.Size() {
		return ErrBitRange
	}
	m.words[i/wordBits] |= 1 << (i % wordBits)
	return nil
}

// ClearBit clears the stored bit at i; i must be in [0, Size()).
func (m *BitMask) ClearBit(i int) error {
	if i < 0 || i >= m.Size() {
		return ErrBitRange
	}
	m.words[i/wordBits] &^= 1 << (i % wordBits)
	return nil
}

// SetBits sets the half-open bit range [from, from+count), spanning word
// boundaries as needed. count zero is a no-op.
func (m *BitMask) SetBits(from, count int) error { return m.applyRange(from, count, true) }

// ClearBits clears the half-open bit range [from, from+count).
func (m *BitMask) ClearBits(from, count int) error { return m.applyRange(from, count, false) }

func (m *BitMask) applyRange(from, count int, set bool) error {
	// from > Size()-count is the overflow-safe form of from+count > Size().
	if from < 0 || count < 0 || from > m.Size()-count {
		return ErrBitRange
	}
	for count > 0 {
		w := from / wordBits
		off := from % wordBits
		n := wordBits - off
		if n > count {
			n = count
		}
		span := widthMask(n) << off
		if set {
			m.words[w] |= span
		} else {
			m.words[w] &^= span
		}
		from += n
		count -= n
	}
	return nil
}

// widthMask returns a word with the low n bits set, 0 <= n <= 32.
func widthMask(n int) uint32 {
	if n >= wordBits {
		return ^uint32(0)
	}
	return 1<<n - 1
}

// Not returns a new mask with every stored bit flipped and the padding
// negated, so that m.Not().Not() equals m at every index.
func (m BitMask) Not() BitMask {
	out := BitMask{padding: !m.padding}
	if len(m.words) > 0 {
		out.words = make([]uint32, len(m.words))
		for i, w := range m.words {
			out.words[i] = ^w
		}
	}
	return out
}

// And returns the bitwise intersection of m and o under the padding
// extension rule.
func (m BitMask) And(o BitMask) BitMask {
	return combine(m, o, func(x, y uint32) uint32 { return x & y })
}

// Or returns the bitwise union of m and o under the padding extension rule.
func (m BitMask) Or(o BitMask) BitMask {
	return combine(m, o, func(x, y uint32) uint32 { return x | y })
}

// Xor returns the bitwise difference of m and o under the padding extension
// rule.
func (m BitMask) Xor(o BitMask) BitMask {
	return combine(m, o, func(x, y uint32) uint32 { return x ^ y })
}

// combine applies op word-wise over the longer operand's size. The shorter
// operand is extended with its own padding fill, and the result's padding is
// op applied to the two padding values.
func combine(a, b BitMask, op func(x, y uint32) uint32) BitMask {
	n := len(a.words)
	if len(b.words) > n {
		n = len(b.words)
	}
	out := BitMask{padding: op(fill(a.padding), fill(b.padding)) != 0}
	if n > 0 {
		out.words = make([]uint32, n)
		for i := 0; i < n; i++ {
			out.words[i] = op(a.word(i), b.word(i))
		}
	}
	return out
}

// word returns stored word i, or the padding fill beyond the stored length.
func (m BitMask) word(i int) uint32 {
	if i < len(m.words) {
		return m.words[i]
	}
	return fill(m.padding)
}

// fill broadcasts a bit value to all 32 bits of a word.
func fill(bit bool) uint32 {
	if bit {
		return ^uint32(0)
	}
	return 0
}

// Equal reports whether m and o describe the same conceptual bit vector:
// equal padding and equal effective bits over the larger of the two sizes.
func (m BitMask) Equal(o BitMask) bool {
	if m.padding != o.padding {
		return false
	}
	n := len(m.words)
	if len(o.words) > n {
		n = len(o.words)
	}
	for i := 0; i < n; i++ {
		if m.word(i) != o.word(i) {
			return false
		}
	}
	return true
}

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// Hash is consistent with Equal: equal masks hash equal. It hashes the
// normalized form, with trailing words that match the padding fill folded
// into the padding.
func (m BitMask) Hash() uint64 {
	pad := fill(m.padding)
	n := len(m.words)
	for n > 0 && m.words[n-1] == pad {
		n--
	}
	h := uint64(fnvOffset64)
	for i := 0; i < n; i++ {
		w := m.words[i]
		for s := 0; s < wordBits; s += 8 {
			h ^= uint64(byte(w >> s))
			h *= fnvPrime64
		}
	}
	if m.padding {
		h ^= 1
	}
	h *= fnvPrime64
	return h
}

// String renders the stored bits with the highest index leftmost; the
// zero-length masks render as their singleton names.
func (m BitMask) String() string {
	if len(m.words) == 0 {
		if m.padding {
			return "Ones"
		}
		return "Zeros"
	}
	var b strings.Builder
	b.Grow(m.Size())
	for i := m.Size() - 1; i >= 0; i-- {
		if m.Bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
