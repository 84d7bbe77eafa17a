package clock

import "time"

// Clock абстрагирует источник текущего времени.
// Вся логика, работающая с TTL и окнами блокировки, получает время
// через этот интерфейс, что позволяет подменять часы в тестах.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// Real возвращает часы на основе time.Now (в UTC).
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed возвращает часы, всегда показывающие заданное время.
// Предназначено для детерминированных тестов.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time {
	return f.T
}

// Advance сдвигает фиксированные часы вперёд на d.
func (f *Fixed) Advance(d time.Duration) {
	f.T = f.T.Add(d)
}
