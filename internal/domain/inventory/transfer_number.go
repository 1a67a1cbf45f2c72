package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const transferSeqWidth = 5

// TransferNumberPrefix arma el prefijo del día: PREFIX-YYYYMMDD-.
func TransferNumberPrefix(prefix string, day time.Time) string {
	return fmt.Sprintf("%s-%s-", prefix, day.Format("20060102"))
}

// FormatTransferNumber genera PREFIX-YYYYMMDD-NNNNN.
func FormatTransferNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s%0*d", TransferNumberPrefix(prefix, day), transferSeqWidth, seq)
}

// ParseTransferSequence extrae NNNNN del número; error si el formato no corresponde.
func ParseTransferSequence(number string) (int, error) {
	i := strings.LastIndex(number, "-")
	if i < 0 || i == len(number)-1 {
		return 0, fmt.Errorf("número de traslado sin secuencia: %q", number)
	}
	seq, err := strconv.Atoi(number[i+1:])
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("secuencia inválida en %q", number)
	}
	return seq, nil
}

// NextTransferNumber calcula el siguiente número del día a partir del mayor existente
// (last vacío = primer traslado del día).
func NextTransferNumber(prefix string, day time.Time, last string) (string, error) {
	seq := 0
	if last != "" {
		n, err := ParseTransferSequence(last)
		if err != nil {
			return "", err
		}
		seq = n
	}
	return FormatTransferNumber(prefix, day, seq+1), nil
}
