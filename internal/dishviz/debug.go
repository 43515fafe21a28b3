package dishviz

import (
	"sync"
)

func DebugLog(format string, args ...interface{}) {
	if Debug {
		Log.Sugar().Debugf(format, args...)
	}
}

var once sync.Once

func DebugLogOnce(format string, args ...interface{}) {
	if !Debug {
		return
	}
	once.Do(func() {
		Log.Sugar().Debugf(format, args...)
	})
}
