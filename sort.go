package flexbuffers

import intr "github.com/dadrian/flexbuffers/internal"

// Maps with more pairs than this are quicksorted; smaller ones use a
// selection sort.
const quickSortPairs = 20

// sortKeys orders the key/value pairs from start to the top of the stack by
// key bytes. Keys and values sit in alternating slots and move together.
func (b *Builder) sortKeys(start int) {
	sorted := true
	for i := start; i+2 < len(b.stack); i += 2 {
		if b.compareKeys(b.stack[i], b.stack[i+2]) > 0 {
			sorted = false
			break
		}
	}
	if sorted {
		return
	}
	if len(b.stack)-start > 2*quickSortPairs {
		b.quickSort(start, len(b.stack)-2)
	} else {
		b.selectionSort(start)
	}
}

func (b *Builder) compareKeys(k1, k2 stackValue) int {
	return intr.CompareKeys(b.buf, k1.offset, k2.offset)
}

func (b *Builder) swapPairs(i, j int) {
	if i == j {
		return
	}
	b.stack[i], b.stack[j] = b.stack[j], b.stack[i]
	b.stack[i+1], b.stack[j+1] = b.stack[j+1], b.stack[i+1]
}

func (b *Builder) selectionSort(start int) {
	for i := start; i < len(b.stack); i += 2 {
		least := i
		for j := i + 2; j < len(b.stack); j += 2 {
			if b.compareKeys(b.stack[least], b.stack[j]) > 0 {
				least = j
			}
		}
		b.swapPairs(least, i)
	}
}

// quickSort is a Hoare partition over pair indices left..right, both
// pointing at keys.
func (b *Builder) quickSort(left, right int) {
	if left >= right {
		return
	}
	pivot := b.stack[left+(right-left)/4*2]
	l, r := left, right
	for l <= r {
		for b.compareKeys(b.stack[l], pivot) < 0 {
			l += 2
		}
		for b.compareKeys(pivot, b.stack[r]) < 0 {
			r -= 2
		}
		if l <= r {
			b.swapPairs(l, r)
			l += 2
			r -= 2
		}
	}
	b.quickSort(left, r)
	b.quickSort(l, right)
}
