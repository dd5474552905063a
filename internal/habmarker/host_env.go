package habmarker

import (
	"runtime"

	"github.com/hab-tool/hab/internal/habplatform"
)

// HostEnv builds the marker Env for the given target platform, mapping it
// onto PEP-508's host-fact vocabulary. hab has no
// Python interpreter of its own, so the python_* facts describe hab itself:
// os_name/sys_platform/platform_* are real target-host facts; the
// implementation_* facts identify hab as the "interpreter" evaluating the
// marker, the same role CPython plays for pip's environment markers.
func HostEnv(platform habplatform.Name, version string) Env {
	return Env{
		OSName: osName(platform),
		SysPlatform: sysPlatform(platform),
		PlatformMachine: runtime.GOARCH,
		PlatformSystem: platformSystem(platform),
		PlatformRelease: "",
		PlatformVersion: "",
		PythonVersion: version,
		PythonFullVersion: version,
		PlatformPythonImplementation: "hab",
		ImplementationName: "hab",
		ImplementationVersion: version,
	}
}

func osName(p habplatform.Name) string {
	if p == habplatform.Windows {
		return "nt"
	}
	return "posix"
}

func sysPlatform(p habplatform.Name) string {
	switch p {
	case habplatform.Windows:
		return "win32"
	case habplatform.OSX:
		return "darwin"
	default:
		return "linux"
	}
}

func platformSystem(p habplatform.Name) string {
	switch p {
	case habplatform.Windows:
		return "Windows"
	case habplatform.OSX:
		return "Darwin"
	default:
		return "Linux"
	}
}

// WithExtra returns a copy of env with the `extra` marker fact set, used
// when evaluating an optional_distro's own-name extra marker.
func (e Env) WithExtra(extra string) Env {
	e.Extra = extra
	return e
}
