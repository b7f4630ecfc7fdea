package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// formatPrecision is the number of decimals printed per element.
const formatPrecision = 4

// Format renders a host tensor as rows of fixed-precision values followed by
// a type line such as "[ CPUFloatType{3,4} ]".
//
// For rank >= 2 the last dimension forms a row and leading dimensions are
// flattened; vectors print one element per line.
func Format(t *RawTensor) string {
	values := make([]string, t.NumElements())
	width := 0
	for i := range values {
		values[i] = strconv.FormatFloat(t.flatAt(i), 'f', formatPrecision, 64)
		width = max(width, len(values[i]))
	}

	cols := 1
	if len(t.Shape()) >= 2 {
		cols = t.Shape()[len(t.Shape())-1]
	}

	var sb strings.Builder
	for i, v := range values {
		sb.WriteByte(' ')
		sb.WriteString(strings.Repeat(" ", width-len(v)))
		sb.WriteString(v)
		if (i+1)%cols == 0 {
			sb.WriteByte('\n')
		}
	}
	fmt.Fprintf(&sb, "[ %s ]", TypeString(t))
	return sb.String()
}

// TypeString returns the printed type of the tensor, e.g. "CPUFloatType{3,4}".
func TypeString(t *RawTensor) string {
	return fmt.Sprintf("%s%sType{%v}", t.Device().typePrefix(), t.DType().typeName(), t.Shape())
}

func (r *RawTensor) flatAt(i int) float64 {
	if r.dtype == Float64 {
		return r.AsFloat64()[i]
	}
	return float64(r.AsFloat32()[i])
}
