//go:build windows

package executor

import (
	"os/exec"

	"golang.org/x/sys/windows"
)

// isRoot reports membership in the Administrators group.
func isRoot() bool {
	var sid *windows.SID

	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := windows.Token(0).IsMember(sid)
	if err != nil {
		return false
	}
	return member
}

// sudoCommand looks for sudo.exe (Windows 11+) or gsudo.exe on PATH.
func sudoCommand() (string, []string, bool) {
	for _, bin := range []string{"sudo.exe", "gsudo.exe"} {
		if path, err := exec.LookPath(bin); err == nil {
			return path, nil, true
		}
	}
	return "", nil, false
}
