package xgate

import "reflect"

// Facade helpers using the process-wide default Gate.
// Usage: w, _ := xgate.GetWriter("httpd"); if w.Active(xgate.LevelDebug) { ... }

func RegisterAspect(name string) (Level, error) { return Default().RegisterAspect(name) }

func GetWriter(name string) (*Writer, error) { return Default().GetWriter(name) }

func GetTaggedWriter(name string, tags ...string) (*Writer, error) {
	return Default().GetTaggedWriter(name, tags...)
}

func GetWriterForType(t reflect.Type) (*Writer, error) { return Default().GetWriterForType(t) }

func IsLogLevelActive(w *Writer, level Level) bool { return Default().IsLogLevelActive(w, level) }

func InstallConfiguration(c Configuration) (Configuration, error) {
	return Default().InstallConfiguration(c)
}

func ActiveConfiguration() Configuration { return Default().ActiveConfiguration() }
