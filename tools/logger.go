package tools

import (
	"fmt"
	"time"

	"github.com/golang/glog"
)

var isEnabled = true
var printTimestamp = true

func EnableLogger() {
	isEnabled = true
}

func DisableLogger() {
	isEnabled = false
}

func EnableLoggerTimestamp() {
	printTimestamp = true
}

func DisableLoggerTimestamp() {
	printTimestamp = false
}

// LogOutput prints an operator facing line on stdout and records it in the glog files
func LogOutput(val ...interface{}) {
	line := fmt.Sprintln(val...)
	glog.InfoDepth(1, line)
	if !isEnabled {
		return
	}
	if printTimestamp {
		fmt.Print("[" + time.Now().Format("2006-01-02 15.04:05.000") + "] " + line)
		return
	}
	fmt.Print(line)
}
