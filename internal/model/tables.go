package model

// Tables groups the keyword-driven lookup tables. They are data, so callers
// can replace any of them through configuration without touching scoring code.
type Tables struct {
	CategoryRules       []CategoryRule        `json:"category_rules" yaml:"category_rules" mapstructure:"category_rules"`
	Polarity            PolarityTerms         `json:"polarity" yaml:"polarity" mapstructure:"polarity"`
	Actions             []ActionRule          `json:"actions" yaml:"actions" mapstructure:"actions"`
	CategoryThreats     map[Category][]Threat `json:"category_threats" yaml:"category_threats" mapstructure:"category_threats"`
	CategorySensitivity map[Category]int      `json:"category_sensitivity" yaml:"category_sensitivity" mapstructure:"category_sensitivity"`
	Domains             []DomainRule          `json:"domains" yaml:"domains" mapstructure:"domains"`
	ThreatControls      map[Threat][]string   `json:"threat_controls" yaml:"threat_controls" mapstructure:"threat_controls"`
	ThreatImpacts       map[Threat]string     `json:"threat_impacts" yaml:"threat_impacts" mapstructure:"threat_impacts"`
	Concepts            []Concept             `json:"concepts" yaml:"concepts" mapstructure:"concepts"`
	StopWords           []string              `json:"stop_words" yaml:"stop_words" mapstructure:"stop_words"`
	SensitiveData       []string              `json:"sensitive_data" yaml:"sensitive_data" mapstructure:"sensitive_data"`
	ExposedIntegrations []string              `json:"exposed_integrations" yaml:"exposed_integrations" mapstructure:"exposed_integrations"`
}

// CategoryRule lists the signals for one category. Keywords match case-insensitively
// on word boundaries; Patterns are regular expressions matched case-insensitively.
type CategoryRule struct {
	Category Category `json:"category" yaml:"category" mapstructure:"category"`
	Keywords []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty" mapstructure:"patterns"`
}

// PolarityTerms drive contradiction detection. Negative terms are checked first.
type PolarityTerms struct {
	Positive []string `json:"positive" yaml:"positive" mapstructure:"positive"`
	Negative []string `json:"negative" yaml:"negative" mapstructure:"negative"`
}

// ActionRule maps a (gap kind, category) pair to remediation text
type ActionRule struct {
	Kind     GapKind  `json:"kind" yaml:"kind" mapstructure:"kind"`
	Category Category `json:"category" yaml:"category" mapstructure:"category"`
	Action   string   `json:"action" yaml:"action" mapstructure:"action"`
}

// DomainRule describes a control domain used for threat mapping and domain risks.
// The first threat is the domain's primary STRIDE category.
type DomainRule struct {
	Name     string   `json:"name" yaml:"name" mapstructure:"name"`
	Keywords []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`
	Threats  []Threat `json:"threats" yaml:"threats" mapstructure:"threats"`
}

// Concept folds synonyms into one feature for the local embedder
type Concept struct {
	Name  string   `json:"name" yaml:"name" mapstructure:"name"`
	Terms []string `json:"terms" yaml:"terms" mapstructure:"terms"`
}

// DefaultTables returns the built-in vendor security vocabulary
func DefaultTables() Tables {
	return Tables{
		CategoryRules: []CategoryRule{
			{
				Category: CategoryCertification,
				Keywords: []string{"certified", "certification", "certifications", "certificate", "accredited",
					"accreditation", "attestation", "attested", "audit report", "type ii", "type 2"},
				Patterns: []string{`\bSOC\s*[123]\b`, `\bISO[\s/-]*270(01|02|17|18)\b`, `\bFedRAMP\b`,
					`\bPCI[\s-]*DSS\b`, `\bHITRUST\b`, `\bCSA\s*STAR\b`},
			},
			{
				Category: CategoryIncident,
				Keywords: []string{"incident", "incidents", "breach", "breached", "data breach", "compromised",
					"compromise", "ransomware", "cyberattack", "attack", "attacked", "leak", "leaked", "outage",
					"exploited", "hacked", "unauthorized access", "exposed"},
			},
			{
				Category: CategoryCompliance,
				Keywords: []string{"compliance", "compliant", "non-compliant", "regulation", "regulations",
					"regulatory", "gdpr", "hipaa", "ccpa", "sox", "privacy policy", "data processing agreement",
					"dpa", "data residency", "lawful", "legal requirements"},
			},
			{
				Category: CategoryControl,
				Keywords: []string{"encryption", "encrypted", "encrypt", "encrypts", "mfa", "multi-factor", "2fa",
					"two-factor", "authentication", "authorization", "access control", "access controls", "rbac",
					"least privilege", "firewall", "logging", "monitoring", "siem", "backup", "backups", "tls",
					"aes", "password", "passwords", "penetration test", "penetration testing", "vulnerability scanning",
					"patch", "patching", "sso", "key management", "segmentation", "intrusion detection",
					"disaster recovery", "access reviews"},
			},
		},
		Polarity: PolarityTerms{
			Negative: []string{"revoked", "lapsed", "expired", "suspended", "withdrawn", "failed", "no longer",
				"non-compliant", "noncompliant", "not compliant", "not certified", "breach", "breached",
				"terminated", "did not pass", "deficiency", "deficiencies", "violation", "violated", "fined",
				"disabled", "not encrypted", "unencrypted"},
			Positive: []string{"certified", "compliant", "enabled", "implemented", "encrypted", "maintains",
				"maintained", "holds", "achieved", "passed", "renewed", "enforced", "attested", "in place",
				"valid", "active"},
		},
		Actions: []ActionRule{
			{GapMissing, CategoryCertification, "Request the current certification report (e.g. SOC 2 Type II or ISO 27001 certificate) with its validity period"},
			{GapMissing, CategoryCompliance, "Request evidence of regulatory compliance such as a signed DPA, privacy policy and regulator correspondence"},
			{GapMissing, CategoryControl, "Request documentation of the control (policy, configuration evidence or a recent test result)"},
			{GapMissing, CategoryIncident, "Ask the vendor to disclose security incidents from the last 36 months and their remediation"},
			{GapMissing, CategoryGeneral, "Ask the vendor to answer this question directly with supporting documentation"},
			{GapWeak, CategoryCertification, "Obtain the full certification report and confirm scope, period and issuing auditor"},
			{GapWeak, CategoryCompliance, "Request an independent attestation or audit letter covering this requirement"},
			{GapWeak, CategoryControl, "Request configuration evidence or a test result that demonstrates the control operates"},
			{GapWeak, CategoryIncident, "Request the incident post-mortem and confirmation that corrective actions are complete"},
			{GapWeak, CategoryGeneral, "Request more specific evidence; the current support is indirect"},
			{GapContradictory, CategoryCertification, "Verify certification status directly with the issuing body and ask the vendor to explain the discrepancy"},
			{GapContradictory, CategoryCompliance, "Ask the vendor to reconcile conflicting compliance statements with dated documentation"},
			{GapContradictory, CategoryControl, "Schedule a follow-up to confirm the current state of the control; sources disagree"},
			{GapContradictory, CategoryIncident, "Ask the vendor to confirm or refute the reported incident with a written statement"},
			{GapContradictory, CategoryGeneral, "Resolve the conflicting statements with the vendor before relying on either"},
		},
		CategoryThreats: map[Category][]Threat{
			CategoryControl:       {ThreatSpoofing, ThreatTampering, ThreatElevationOfPrivilege},
			CategoryIncident:      {ThreatDenialOfService, ThreatInformationDisclosure},
			CategoryCertification: {ThreatTampering, ThreatRepudiation},
			CategoryCompliance:    {ThreatInformationDisclosure, ThreatRepudiation},
			CategoryGeneral:       {ThreatInformationDisclosure},
		},
		CategorySensitivity: map[Category]int{
			CategoryCompliance:    2,
			CategoryCertification: 2,
			CategoryControl:       1,
			CategoryIncident:      1,
			CategoryGeneral:       0,
		},
		Domains: []DomainRule{
			{
				Name:     "data_protection",
				Keywords: []string{"encryption", "encrypted", "encrypt", "data protection", "privacy", "gdpr", "confidentiality", "tls", "aes"},
				Threats:  []Threat{ThreatInformationDisclosure, ThreatTampering},
			},
			{
				Name:     "access_control",
				Keywords: []string{"authentication", "authorization", "access control", "mfa", "multi-factor", "2fa", "password", "passwords", "sso", "privilege", "privileged"},
				Threats:  []Threat{ThreatElevationOfPrivilege, ThreatSpoofing},
			},
			{
				Name:     "monitoring",
				Keywords: []string{"logging", "logs", "monitoring", "audit", "siem", "detection"},
				Threats:  []Threat{ThreatRepudiation},
			},
			{
				Name:     "incident_response",
				Keywords: []string{"incident", "incidents", "incident response", "breach", "disaster recovery", "backup", "backups", "business continuity"},
				Threats:  []Threat{ThreatDenialOfService},
			},
			{
				Name:     "compliance",
				Keywords: []string{"compliance", "compliant", "certification", "certified", "soc 2", "iso 27001", "audit"},
				Threats:  []Threat{ThreatTampering},
			},
			{
				Name:     "vulnerability_management",
				Keywords: []string{"vulnerability", "vulnerabilities", "patch", "patching", "scanning", "penetration test", "penetration testing"},
				Threats:  []Threat{ThreatSpoofing},
			},
			{
				Name:     "vendor_management",
				Keywords: []string{"third party", "third-party", "third parties", "supplier", "suppliers", "subprocessor", "subprocessors", "sub-processor"},
				Threats:  []Threat{ThreatElevationOfPrivilege},
			},
		},
		ThreatControls: map[Threat][]string{
			ThreatSpoofing:              {"Multi-factor authentication", "Strong password policies", "Identity verification"},
			ThreatTampering:             {"Data integrity checks", "Code signing", "Change management"},
			ThreatRepudiation:           {"Comprehensive audit logging", "Digital signatures", "Time stamping"},
			ThreatInformationDisclosure: {"Encryption at rest and in transit", "Access controls", "Data classification"},
			ThreatDenialOfService:       {"Rate limiting", "DDoS protection", "Redundancy and failover"},
			ThreatElevationOfPrivilege:  {"Least privilege access", "Role-based access control", "Regular access reviews"},
			ThreatHistoricalIncident:    {"Incident response plan review", "Security control validation", "Third-party audit"},
		},
		ThreatImpacts: map[Threat]string{
			ThreatSpoofing:              "Unauthorized access through identity impersonation",
			ThreatTampering:             "Unauthorized modification of data or configurations",
			ThreatRepudiation:           "Inability to prove actions occurred or track accountability",
			ThreatInformationDisclosure: "Unauthorized access to sensitive data",
			ThreatDenialOfService:       "Service disruption affecting availability",
			ThreatElevationOfPrivilege:  "Unauthorized access to elevated permissions",
			ThreatHistoricalIncident:    "Repeated security failures based on past incidents",
		},
		Concepts: []Concept{
			{Name: "mfa", Terms: []string{"mfa", "2fa", "multi-factor", "multifactor", "two-factor", "otp", "authenticator", "totp"}},
			{Name: "encryption", Terms: []string{"encryption", "encrypted", "encrypt", "encrypts", "tls", "ssl", "aes", "aes-256", "cryptographic", "https", "kms"}},
			{Name: "certification", Terms: []string{"certified", "certification", "certifications", "certificate", "certify", "attestation", "attested", "accredited", "accreditation"}},
			{Name: "soc2", Terms: []string{"soc", "soc2"}},
			{Name: "iso27001", Terms: []string{"27001", "iso27001"}},
			{Name: "pci", Terms: []string{"pci", "pci-dss", "dss"}},
			{Name: "incident", Terms: []string{"incident", "incidents", "breach", "breached", "compromise", "compromised", "leak", "leaked", "hacked", "ransomware", "attack", "cyberattack"}},
			{Name: "logging", Terms: []string{"logging", "logs", "log", "siem", "monitoring", "monitored", "detection", "alerting"}},
			{Name: "audit", Terms: []string{"audit", "audits", "audited", "auditor", "auditors"}},
			{Name: "backup", Terms: []string{"backup", "backups", "recovery", "restore", "disaster", "failover", "redundancy", "continuity"}},
			{Name: "access", Terms: []string{"rbac", "privilege", "privileges", "permissions", "authorization", "role-based", "least-privilege"}},
			{Name: "authentication", Terms: []string{"authentication", "login", "password", "passwords", "sso", "saml", "credentials", "oidc"}},
			{Name: "vulnerability", Terms: []string{"vulnerability", "vulnerabilities", "patch", "patching", "patches", "penetration", "pentest", "pen-test", "cve", "scanning"}},
			{Name: "privacy", Terms: []string{"privacy", "gdpr", "ccpa", "pii", "dpa", "personal"}},
			{Name: "compliance", Terms: []string{"compliance", "compliant", "regulatory", "regulation", "regulations", "hipaa", "sox"}},
			{Name: "thirdparty", Terms: []string{"third-party", "supplier", "suppliers", "subprocessor", "subprocessors", "sub-processor"}},
			{Name: "revocation", Terms: []string{"revoked", "lapsed", "expired", "suspended", "withdrawn"}},
		},
		StopWords: []string{
			"a", "an", "and", "any", "are", "as", "at", "be", "been", "by", "can", "company", "could", "do",
			"does", "for", "from", "has", "have", "hold", "how", "if", "in", "into", "is", "it", "its", "of",
			"on", "or", "our", "organization", "please", "since", "so", "such", "that", "the", "their", "there",
			"these", "this", "to", "use", "uses", "using", "vendor", "vendors", "was", "we", "were", "what",
			"when", "where", "which", "who", "will", "with", "would", "you", "your", "describe", "provide",
		},
		SensitiveData:       []string{"pii", "credential", "password", "secret"},
		ExposedIntegrations: []string{"production", "database", "api"},
	}
}
