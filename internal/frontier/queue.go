package frontier

// FIFOQueue is a slice-backed first-in first-out queue.
type FIFOQueue[T any] []T

func NewFIFOQueue[T any]() *FIFOQueue[T] {
	return &FIFOQueue[T]{}
}

func (f *FIFOQueue[T]) Enqueue(item T) {
	*f = append(*f, item)
}

// return false on the second returned values if queue is empty
func (f *FIFOQueue[T]) Dequeue() (T, bool) {
	var zero T
	if len(*f) == 0 {
		return zero, false
	}
	first := (*f)[0]
	(*f)[0] = zero
	*f = (*f)[1:]
	return first, true
}

func (f *FIFOQueue[T]) Size() int {
	return len(*f)
}

// Items returns a copy of the queued items in dequeue order.
func (f *FIFOQueue[T]) Items() []T {
	out := make([]T, len(*f))
	copy(out, *f)
	return out
}
