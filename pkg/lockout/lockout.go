package lockout

import "time"

// Policy описывает политику блокировки входа по числу неудачных попыток.
// MaxAttempts — порог, начиная с которого вход блокируется,
// Window — интервал от последней неудачной попытки, в течение которого
// действует блокировка.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

// Decision — результат проверки политики для конкретного пользователя.
//
// Если Allowed == false, RetryAfter показывает, через сколько времени
// вход снова будет разрешён. Inconsistent сигнализирует о нарушении
// инварианта хранилища (счётчик попыток достиг порога, но время последней
// неудачной попытки отсутствует); в этом случае вход разрешается,
// а вызывающая сторона должна зафиксировать предупреждение в логе.
type Decision struct {
	Allowed      bool
	RetryAfter   time.Duration
	Inconsistent bool
}

// Decide — чистая функция принятия решения о блокировке.
//
// Вход блокируется, когда attempts >= MaxAttempts И с момента последней
// неудачной попытки прошло меньше Window. По истечении окна следующая
// попытка разрешается, но счётчик НЕ сбрасывается по времени — его
// обнуляет только успешный вход.
func (p Policy) Decide(attempts int, lastFailed *time.Time, now time.Time) Decision {
	if attempts < p.MaxAttempts {
		return Decision{Allowed: true}
	}

	// Порог достигнут, но времени последней неудачи нет — по инварианту
	// такое состояние невозможно. Разрешаем вход и помечаем как
	// несогласованное, чтобы вызывающая сторона залогировала предупреждение.
	if lastFailed == nil {
		return Decision{Allowed: true, Inconsistent: true}
	}

	elapsed := now.Sub(*lastFailed)
	if elapsed < p.Window {
		return Decision{
			Allowed:    false,
			RetryAfter: p.Window - elapsed,
		}
	}

	return Decision{Allowed: true}
}
