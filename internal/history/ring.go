package history

// ring — кольцевой буфер фиксированного размера. При переполнении самый старый
// элемент вытесняется. Синхронизацией занимается владелец буфера.
type ring[T any] struct {
	data  []T
	count int // текущее количество элементов
	head  int // индекс самого старого элемента
}

// newRing создаёт буфер ёмкостью size. Неположительный размер приводит к панике.
func newRing[T any](size int) *ring[T] {
	if size <= 0 {
		panic("ring buffer size must be positive")
	}
	return &ring[T]{data: make([]T, size)}
}

func (r *ring[T]) push(item T) {
	size := len(r.data)
	r.data[(r.head+r.count)%size] = item
	if r.count < size {
		r.count++
	} else {
		r.head = (r.head + 1) % size
	}
}

func (r *ring[T]) length() int {
	return r.count
}

// at возвращает элемент i, где 0 — самый старый.
func (r *ring[T]) at(i int) T {
	if i < 0 || i >= r.count {
		panic("index out of range")
	}
	return r.data[(r.head+i)%len(r.data)]
}

// last возвращает самый новый элемент; false, если буфер пуст.
func (r *ring[T]) last() (T, bool) {
	if r.count == 0 {
		var zero T
		return zero, false
	}
	return r.at(r.count - 1), true
}

// slice возвращает копию элементов от старых к новым.
func (r *ring[T]) slice() []T {
	out := make([]T, r.count)
	for i := range out {
		out[i] = r.at(i)
	}
	return out
}
