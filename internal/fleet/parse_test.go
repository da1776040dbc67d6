package fleet

import (
	"reflect"
	"testing"
)

func TestParseDevices(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want []string
	}{
		{"empty", "", []string{}},
		{"header only", "List of devices attached\n\n", []string{}},
		{"mixed", "List of devices attached\nemulator-5554\tdevice\nR58M123ABC\toffline\n", []string{"emulator-5554"}},
		{"unauthorized", "List of devices attached\nR58M123ABC\tunauthorized\n", []string{}},
		{"long format", "List of devices attached\n192.168.1.20:5555      device product:sdk_gphone model:Pixel_7 transport_id:3\n", []string{"192.168.1.20:5555"}},
		{"crlf", "List of devices attached\r\nA1\tdevice\r\nB2\tdevice\r\n", []string{"A1", "B2"}},
		{"first line is always header", "X1\tdevice\nX2\tdevice\n", []string{"X2"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ParseDevices(c.out); !reflect.DeepEqual(got, c.want) {
				t.Fatalf("ParseDevices() = %v, want %v", got, c.want)
			}
		})
	}
}
