package mitre

import "secdash/pkg/models"

// BuiltinTable is the reference data shipped with the dashboard, used when
// no table file is configured. It covers the techniques the stock ruleset
// tags plus the tactics, mitigations, software and groups they reference.
func BuiltinTable() *Table {
	return NewTable(builtinEntries)
}

var builtinEntries = []models.MitreEntry{
	{ID: "T1110", Name: "Brute Force", URL: "https://attack.mitre.org/techniques/T1110/"},
	{ID: "T1078", Name: "Valid Accounts", URL: "https://attack.mitre.org/techniques/T1078/"},
	{ID: "T1021", Name: "Remote Services", URL: "https://attack.mitre.org/techniques/T1021/"},
	{ID: "T1059", Name: "Command and Scripting Interpreter", URL: "https://attack.mitre.org/techniques/T1059/"},
	{ID: "T1068", Name: "Exploitation for Privilege Escalation", URL: "https://attack.mitre.org/techniques/T1068/"},
	{ID: "T1070", Name: "Indicator Removal", URL: "https://attack.mitre.org/techniques/T1070/"},
	{ID: "T1098", Name: "Account Manipulation", URL: "https://attack.mitre.org/techniques/T1098/"},
	{ID: "T1105", Name: "Ingress Tool Transfer", URL: "https://attack.mitre.org/techniques/T1105/"},
	{ID: "T1136", Name: "Create Account", URL: "https://attack.mitre.org/techniques/T1136/"},
	{ID: "T1190", Name: "Exploit Public-Facing Application", URL: "https://attack.mitre.org/techniques/T1190/"},
	{ID: "T1505", Name: "Server Software Component", URL: "https://attack.mitre.org/techniques/T1505/"},
	{ID: "T1543", Name: "Create or Modify System Process", URL: "https://attack.mitre.org/techniques/T1543/"},
	{ID: "T1548", Name: "Abuse Elevation Control Mechanism", URL: "https://attack.mitre.org/techniques/T1548/"},
	{ID: "T1595", Name: "Active Scanning", URL: "https://attack.mitre.org/techniques/T1595/"},
	{ID: "TA0001", Name: "Initial Access", URL: "https://attack.mitre.org/tactics/TA0001/"},
	{ID: "TA0002", Name: "Execution", URL: "https://attack.mitre.org/tactics/TA0002/"},
	{ID: "TA0003", Name: "Persistence", URL: "https://attack.mitre.org/tactics/TA0003/"},
	{ID: "TA0004", Name: "Privilege Escalation", URL: "https://attack.mitre.org/tactics/TA0004/"},
	{ID: "TA0005", Name: "Defense Evasion", URL: "https://attack.mitre.org/tactics/TA0005/"},
	{ID: "TA0006", Name: "Credential Access", URL: "https://attack.mitre.org/tactics/TA0006/"},
	{ID: "TA0007", Name: "Discovery", URL: "https://attack.mitre.org/tactics/TA0007/"},
	{ID: "TA0008", Name: "Lateral Movement", URL: "https://attack.mitre.org/tactics/TA0008/"},
	{ID: "TA0011", Name: "Command and Control", URL: "https://attack.mitre.org/tactics/TA0011/"},
	{ID: "M1032", Name: "Multi-factor Authentication", URL: "https://attack.mitre.org/mitigations/M1032/"},
	{ID: "M1027", Name: "Password Policies", URL: "https://attack.mitre.org/mitigations/M1027/"},
	{ID: "S0154", Name: "Cobalt Strike", URL: "https://attack.mitre.org/software/S0154/"},
	{ID: "S0002", Name: "Mimikatz", URL: "https://attack.mitre.org/software/S0002/"},
	{ID: "G0016", Name: "APT29", URL: "https://attack.mitre.org/groups/G0016/"},
	{ID: "G0007", Name: "APT28", URL: "https://attack.mitre.org/groups/G0007/"},
}
