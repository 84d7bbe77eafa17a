package password

import (
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash — заранее вычисленный bcrypt-хэш случайной строки.
// Используется для выравнивания времени ответа, когда у аккаунта нет
// парольного хэша или пользователь не найден: сравнение с этим хэшем
// занимает столько же времени, сколько настоящая проверка.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Hash хеширует пароль с использованием bcrypt.
func Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Compare сравнивает хэш пароля и «сырой» пароль.
func Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// DummyCompare выполняет bcrypt-сравнение с фиктивным хэшем и всегда
// «проваливается». Вызывается на путях, где настоящего хэша нет,
// чтобы по времени ответа нельзя было определить существование аккаунта.
func DummyCompare(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}

// ValidateStrength проверяет, что пароль обладает достаточной энтропией.
// Возвращает ошибку с пояснением, как усилить пароль, если энтропия ниже порога.
func ValidateStrength(password string, minEntropy float64) error {
	return passwordvalidator.Validate(password, minEntropy)
}
