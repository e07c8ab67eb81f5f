package rules

// windowsRules returns the rule tables for cmd.exe/PowerShell hosts.
func windowsRules() *RuleSet {
	return &RuleSet{
		platform: PlatformWindows,
		dangerousSubstrings: []string{
			"del /", "erase /", "rd /s", "rmdir /s", "remove-item", "format ", "diskpart",
			"cipher /w", "vssadmin", "wbadmin",
			"shutdown", "restart-computer", "stop-computer",
			"runas", "net user", "net localgroup", "takeown", "icacls", "cacls",
			"taskkill", "stop-process",
			"sc delete", "sc config", "sc stop", "schtasks", "bcdedit",
			"reg add", "reg delete", "set-itemproperty", "set-executionpolicy",
			"invoke-expression", "iex ", "invoke-webrequest", "bitsadmin", "certutil",
			"powershell -enc", "powershell -e ", "-encodedcommand",
			"curl ", "wget ",
		},
		injectionPatterns: []InjectionPattern{
			{Token: "\n", Description: "line break"},
			{Token: "\r", Description: "line break"},
			{Token: ";", Description: "command separator ';'"},
			{Token: "&", Description: "command separator '&'"},
			{Token: "|", Description: "pipe '|'"},
			{Token: "`", Description: "backtick escape"},
			{Token: "${", Description: "variable expansion '${'"},
			{Token: "$", Description: "variable expansion '$'"},
			{Token: "%", Description: "variable expansion '%'"},
			{Token: "!", Description: "delayed expansion '!'"},
			{Token: "^", Description: "escape character '^'"},
			{Token: "(", Description: "subexpression '('"},
			{Token: ")", Description: "subexpression ')'"},
			{Token: "{", Description: "script block '{'"},
			{Token: "}", Description: "script block '}'"},
			{Token: "[", Description: "type accelerator '['"},
			{Token: "]", Description: "type accelerator ']'"},
			{Token: "<", Description: "input redirection '<'"},
			{Token: ">", Description: "output redirection '>'"},
			{Token: "**", Description: "recursive glob '**'"},
			{Token: "../", Description: "directory traversal '../'"},
			{Token: `..\`, Description: `directory traversal '..\'`},
			{Token: ".", Description: "leading-dot execution", Leading: true},
		},
		whitelistPrefixes: []string{
			"where", "ipconfig", "tasklist",
			"git status", "git log", "git diff", "git show",
			"go version", "go env",
			"node --version", "node -v", "npm --version", "npm -v",
			"python --version", "py --version", "pip --version",
		},
		whitelistExact: append([]string{
			"whoami", "hostname", "systeminfo",
		}, gitListingForms...),
		deniedArguments: map[string][]string{
			"git log":  gitOutputArgs,
			"git diff": gitOutputArgs,
			"git show": gitOutputArgs,
			"go env":   goEnvWriteArgs,
			"ipconfig": {
				"/release", "/renew", "/flushdns", "/registerdns",
				"/setclassid",
			},
		},
		restrictedRoots: []string{
			`C:\Windows`, `C:\Boot`, `C:\Recovery`, `C:\System Volume Information`,
			`C:\$Recycle.Bin`, `C:\ProgramData\Microsoft\Crypto`,
			`C:\Users\Default`, `C:\Users\Administrator`,
			`C:\Users\*\.ssh`, `C:\Users\*\.gnupg`, `C:\Users\*\.aws`,
			`C:\Users\*\NTUSER.DAT`, `C:\Users\*\AppData\Roaming\Microsoft\Credentials`,
			`C:\Users\*\AppData\Local\Microsoft\Credentials`,
			`C:\pagefile.sys`, `C:\hiberfil.sys`, `C:\swapfile.sys`,
		},
		allowedRoots: []string{
			`C:\Users`, `C:\Temp`, `C:\tmp`, `C:\Projects`, `C:\src`, `C:\inetpub\wwwroot`,
			`C:\tools`,
		},
		sensitiveSubpaths: []string{
			`\.ssh\`, `\.gnupg\`, `\.aws\`,
			`\appdata\roaming\microsoft\windows\start menu\programs\startup\`,
			`\programdata\microsoft\windows\start menu\programs\startup\`,
		},
		executableExtensions: []string{
			".exe", ".bat", ".cmd", ".com", ".ps1", ".psm1", ".vbs", ".vbe", ".js", ".jse",
			".wsf", ".wsh", ".msi", ".msp", ".dll", ".scr", ".cpl", ".jar",
			".sh", ".py", ".pl", ".rb",
		},
		blockedExtensions: []string{
			".lnk", ".scf", ".url", ".pif", ".hta", ".reg", ".library-ms",
		},
		systemBinDirs: []string{
			`C:\Windows`, `C:\Program Files`, `C:\Program Files (x86)`,
		},
		reservedNames:        reservedDeviceNames(),
		pathMetacharacters:   ";&|`$<>\"*?",
		caseInsensitivePaths: true,
		driveLetters:         true,
	}
}
