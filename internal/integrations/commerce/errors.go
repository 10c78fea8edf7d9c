package commerce

import (
	"errors"
	"fmt"
)

// ErrNotFound: одиночный заказ не существует. Не фатально для процесса.
var ErrNotFound = errors.New("order not found")

// TransportError — сетевая или HTTP-ошибка магазина. Ретраев в ядре нет,
// ошибка поднимается наверх как есть.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("store transport: %s", e.Message)
	}
	return fmt.Sprintf("store http %d: %s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func AsTransport(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
