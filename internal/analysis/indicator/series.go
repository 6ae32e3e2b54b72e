// Package indicator содержит чистые функции расчета индикаторов по серии баров.
//
// Каждая функция возвращает новую серию той же длины, что и входная, выровненную
// по индексу. Позиции до окончания прогрева хранят явный маркер "не определено",
// а не числовое значение.
package indicator

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Point значение индикатора на одном баре
type Point struct {
	Value   float64
	Defined bool
}

// Series серия значений индикатора, выровненная по барам
type Series []Point

func undefinedSeries(n int) Series {
	return make(Series, n)
}

// At возвращает значение на позиции i и признак его определенности
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) {
		return 0, false
	}
	p := s[i]
	return p.Value, p.Defined
}

// Latest возвращает значение на последнем баре
func (s Series) Latest() (float64, bool) {
	return s.At(len(s) - 1)
}

// FirstDefined возвращает индекс первого определенного значения или -1
func (s Series) FirstDefined() int {
	for i, p := range s {
		if p.Defined {
			return i
		}
	}
	return -1
}

// Values возвращает значения серии; неопределенные позиции равны нулю,
// поэтому вызывающий код должен проверять Defined.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// MarshalJSON кодирует неопределенные позиции как null
func (s Series) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, p := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if !p.Defined {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(p.Value, 'f', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON разбирает массив, где null означает неопределенное значение
func (s *Series) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Series, len(raw))
	for i, v := range raw {
		if v != nil {
			out[i] = Point{Value: *v, Defined: true}
		}
	}
	*s = out
	return nil
}
