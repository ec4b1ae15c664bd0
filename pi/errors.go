package pi

import "fmt"

// ErrMap maps GCS2 error codes to friendly strings
var ErrMap = map[int]string{
	0:  "No Error",
	1:  "Parameter syntax error",
	2:  "Unknown command",
	3:  "Command length out of limits or command buffer overrun",
	5:  "Unallowable move attempted on unreferenced axis, or move attempted with servo off",
	7:  "Position out of limits",
	8:  "Velocity out of limits",
	10: "Controller was stopped by command",
	13: "Parameter for NAV out of range",
	15: "Invalid axis identifier",
	16: "Unknown stage name",
	17: "Parameter out of range",
	23: "Illegal axis",
	24: "Incorrect number of parameters",
	25: "Invalid floating point number",
	26: "Parameter missing",
	27: "Soft limit out of range",
	46: "OPM (Optical Power Meter) missing",
	54: "Unknown parameter",
	56: "Password invalid",
	60: "Protected Param: current Command Level (CCL) too low",
	64: "Parameter is read-only",
	66: "Voltage out of limits",
	67: "Not enough memory available for requested wave curve",
	70: "GCS-array doesn't support different length; request arrays which have different lengths separately",
	71: "Attempt to restart the generator while it is running in single step mode",
	72: "MOV, MVR, STA, SVR, STE, IMP and WGO blocked when analog target is active",
	73: "MOV, MVR, STA, SVR, STE, and IMP blocked when wave generator is active",

	200: "No stage connected to axis",
	210: "Illegal file name (must be 8-0 format)",
	211: "File not found on controller",
	212: "Error writing file on controller",
	215: "The connection between controller and stage may be broken",
	216: "The connected stage has driven into a limit switch, call CLR to resume operation",

	301: "Send buffer overflow",
	302: "Voltage out of limits",
	304: "Received command is too long",
	307: "Timeout while receiving command",
	308: "A lengthy operation has not finished in the expected time",

	333: "Internal hardware error",
	601: "not enough memory",
	602: "hardware voltage error",
	603: "hardware temperature out of range",
}

// GCS2Status encapsulates a status (error) code from a PI controller
// and its logic
type GCS2Status struct {
	code int
}

// GCS2Err converts an error code to something that implements the error
// interface.  Code 0 maps to nil.
func GCS2Err(code int) error {
	if code == 0 {
		return nil
	}
	return GCS2Status{code}
}

func (e GCS2Status) Error() string {
	if s, ok := ErrMap[e.code]; ok {
		return fmt.Sprintf("%d - %s", e.code, s)
	}
	return fmt.Sprintf("%d - UNKNOWN ERROR CODE", e.code)
}
