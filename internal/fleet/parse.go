package fleet

import "strings"

// OnlineState is the status column adb prints for a ready device.
const OnlineState = "device"

// ParseDevices extracts ready device ids from `adb devices` style output:
// a header line followed by "<id>\t<state>" rows. Extra columns, as printed
// by `adb devices -l`, are ignored.
func ParseDevices(out string) []string {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	devices := []string{}
	for i, line := range lines {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != OnlineState {
			continue
		}
		devices = append(devices, fields[0])
	}
	return devices
}
