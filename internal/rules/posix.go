package rules

// posixRules returns the rule tables for sh-compatible hosts.
func posixRules() *RuleSet {
	return &RuleSet{
		platform: PlatformPOSIX,
		dangerousSubstrings: []string{
			// Destructive file and disk operations
			"rm -rf", "rm -fr", "rm -r", "rm --recursive", "rmdir",
			"shred", "wipefs", "mkfs", "fdisk", "parted", "dd if=", "dd of=",
			"mv /", "> /dev/", "/dev/sd", "/dev/nvme",
			// Fork bomb
			":(){",
			// Power control
			"shutdown", "reboot", "halt", "poweroff", "init 0", "init 6", "telinit",
			// Privilege and account changes
			"sudo", "su -", "su root", "doas", "pkexec",
			"chmod", "chown", "chgrp", "passwd", "chpasswd",
			"useradd", "userdel", "usermod", "groupadd", "groupdel", "visudo",
			// Process control
			"killall", "pkill", "kill -9",
			// Services, scheduling and kernel state
			"systemctl", "service ", "launchctl", "crontab", "at now",
			"insmod", "rmmod", "modprobe", "mount ", "umount ", "iptables", "sysctl -w",
			// Download and pipe-to-interpreter
			"curl ", "wget ", "| sh", "|sh", "| bash", "|bash", "| zsh", "|zsh",
			"nc -e", "ncat -e", "eval ", "exec ",
		},
		injectionPatterns: []InjectionPattern{
			{Token: "\n", Description: "line break"},
			{Token: "\r", Description: "line break"},
			{Token: ";", Description: "command separator ';'"},
			{Token: "&", Description: "background/AND operator '&'"},
			{Token: "|", Description: "pipe '|'"},
			{Token: "`", Description: "backtick substitution"},
			{Token: "${", Description: "variable expansion '${'"},
			{Token: "$", Description: "variable expansion '$'"},
			{Token: "(", Description: "subshell '('"},
			{Token: ")", Description: "subshell ')'"},
			{Token: "{", Description: "brace expansion '{'"},
			{Token: "}", Description: "brace expansion '}'"},
			{Token: "[", Description: "glob pattern '['"},
			{Token: "]", Description: "glob pattern ']'"},
			{Token: "<", Description: "input redirection '<'"},
			{Token: ">", Description: "output redirection '>'"},
			{Token: `\`, Description: "escape character '\\'"},
			{Token: "**", Description: "recursive glob '**'"},
			{Token: "../", Description: "directory traversal '../'"},
			{Token: "~", Description: "home directory expansion '~'"},
			{Token: ".", Description: "leading-dot execution", Leading: true},
		},
		whitelistPrefixes: []string{
			"ls", "echo", "uname", "id", "df", "du", "free", "ps", "which", "stat",
			"lsb_release", "sw_vers",
			"git status", "git log", "git diff", "git show",
			"go version", "go env",
			"node --version", "node -v", "npm --version", "npm -v",
			"python --version", "python3 --version", "pip --version",
			"rustc --version", "cargo --version", "java -version", "docker version",
		},
		whitelistExact: append([]string{
			"pwd", "whoami", "hostname", "uptime", "date", "groups", "nproc", "arch",
		}, gitListingForms...),
		deniedArguments: map[string][]string{
			"git log":  gitOutputArgs,
			"git diff": gitOutputArgs,
			"git show": gitOutputArgs,
			"go env":   goEnvWriteArgs,
		},
		restrictedRoots: []string{
			// Boot, kernel and pseudo-filesystems
			"/boot", "/proc", "/sys", "/dev", "/run",
			// Credentials and authentication
			"/etc/passwd", "/etc/shadow", "/etc/gshadow", "/etc/group",
			"/etc/sudoers", "/etc/sudoers.d", "/etc/security", "/etc/pam.d",
			"/etc/ssh", "/etc/ssl/private", "/etc/kubernetes",
			// Service manager and scheduling
			"/etc/systemd", "/lib/systemd", "/usr/lib/systemd", "/etc/init.d",
			"/etc/crontab", "/etc/cron.d", "/etc/cron.hourly", "/etc/cron.daily",
			"/etc/cron.weekly", "/etc/cron.monthly", "/var/spool/cron",
			// Package management state
			"/var/lib/dpkg", "/var/lib/apt", "/var/cache/apt", "/var/lib/rpm",
			"/var/lib/pacman",
			// Root's home and container runtime
			"/root", "/var/run/docker.sock",
			// macOS system areas
			"/System", "/private/etc", "/private/var/db", "/Library/LaunchDaemons",
			"/Library/Keychains",
			// Per-user secrets
			"/home/*/.ssh", "/home/*/.gnupg", "/home/*/.aws", "/home/*/.kube", "/home/*/.docker",
			"/Users/*/.ssh", "/Users/*/.gnupg", "/Users/*/.aws", "/Users/*/.kube",
			"/Users/*/Library/Keychains",
		},
		allowedRoots: []string{
			"/home", "/Users", "/tmp", "/var/tmp", "/private/tmp", "/opt", "/srv",
			"/var/www", "/usr/local", "/mnt", "/media", "/Volumes", "/workspace", "/workspaces",
		},
		sensitiveSubpaths: []string{
			"/.ssh/", "/.gnupg/", "/.aws/", "/.kube/",
			"/.config/autostart/", "/etc/xdg/autostart/", "/.config/systemd/",
			"/Library/LaunchAgents/",
		},
		executableExtensions: []string{
			".sh", ".bash", ".zsh", ".fish", ".ksh", ".csh", ".command",
			".py", ".pl", ".rb", ".php", ".js", ".mjs", ".cjs",
			".exe", ".bat", ".cmd", ".com", ".ps1", ".psm1", ".vbs", ".wsf", ".msi",
			".so", ".dylib", ".dll", ".jar", ".bin", ".run", ".elf", ".appimage",
		},
		blockedExtensions: []string{
			".lnk", ".scf", ".url", ".pif", ".hta", ".reg", ".desktop",
		},
		systemBinDirs: []string{
			"/bin", "/sbin", "/usr/bin", "/usr/sbin", "/usr/local/bin", "/usr/local/sbin",
			"/usr/libexec", "/opt/homebrew/bin",
		},
		reservedNames:      reservedDeviceNames(),
		pathMetacharacters: ";&|`$<>",
	}
}

// reservedDeviceNames lists the Windows device names. They are rejected on
// every platform because paths are often shared with Windows tooling.
func reservedDeviceNames() []string {
	names := []string{"CON", "PRN", "AUX", "NUL", "CONIN$", "CONOUT$"}
	for _, prefix := range []string{"COM", "LPT"} {
		for i := 1; i <= 9; i++ {
			names = append(names, prefix+string(rune('0'+i)))
		}
	}
	return names
}

// gitListingForms are the only accepted git branch and remote invocations.
// Any other argument to either creates, renames, deletes or reconfigures.
var gitListingForms = []string{
	"git branch", "git branch -a", "git branch -r", "git branch -v", "git branch -vv",
	"git branch -av", "git branch -a -v", "git branch --list", "git branch --show-current",
	"git remote", "git remote -v",
}

// gitOutputArgs write to a file or run an external diff or textconv program.
var gitOutputArgs = []string{"--output", "--ext-diff", "--textconv"}

// goEnvWriteArgs persist changes to the Go environment file. The flag package
// accepts one or two dashes.
var goEnvWriteArgs = []string{"-w", "--w", "-u", "--u"}
