package content

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT CATALOG
// Встроенный каталог академии. Владелец контента - внешний слой; движку
// нужен лишь сам граф, поэтому каталог здесь минимален и служит
// значением по умолчанию для сидера и тестов.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultCatalog возвращает определения курсов академии кибербезопасности.
func DefaultCatalog() []CourseDef {
	return []CourseDef{
		{
			ID:          1,
			Title:       "Cybersecurity Fundamentals",
			Description: "Базовые понятия: угрозы, защита, цифровая гигиена.",
			Modules: []ModuleDef{
				{
					ID:    1,
					Title: "Introduction to Cybersecurity",
					Lessons: []LessonDef{
						{
							ID:       1,
							Title:    "What is Cybersecurity?",
							Content:  "Cybersecurity is the practice of protecting systems, networks, and data from digital attacks.",
							XPReward: 100,
							Quiz: []QuizQuestion{
								{
									Text:    "What does CIA stand for in security?",
									Options: []string{"Confidentiality, Integrity, Availability", "Central Intelligence Agency", "Code, Inspect, Audit"},
									Correct: 0,
								},
							},
						},
						{
							ID:       2,
							Title:    "Common Cyber Threats",
							Content:  "Malware, phishing, ransomware and social engineering are the most common attack vectors.",
							XPReward: 100,
							Media: []Media{
								{Kind: MediaImage, URL: "https://cdn.cyber-academy.dev/threats/overview.png", Description: "Threat landscape overview"},
							},
						},
						{
							ID:        3,
							Title:     "Defense in Depth",
							Content:   "Layered security controls reduce the blast radius of any single failure.",
							XPReward:  150,
							Practical: "List three security layers protecting your own laptop.",
						},
					},
				},
			},
		},
		{
			ID:          2,
			Title:       "Passwords and Authentication",
			Description: "Пароли, менеджеры паролей и многофакторная аутентификация.",
			Modules: []ModuleDef{
				{
					ID:    1,
					Title: "Strong Credentials",
					Lessons: []LessonDef{
						{
							ID:       1,
							Title:    "Password Strength Secrets",
							Content:  "Passphrases of four random words resist guessing far better than short complex strings.",
							XPReward: 100,
							Quiz: []QuizQuestion{
								{
									Text:    "Which password is strongest?",
									Options: []string{"P@ssw0rd!", "correct horse battery staple", "123456"},
									Correct: 1,
								},
							},
						},
						{
							ID:       2,
							Title:    "Two-Factor Authentication",
							Content:  "App-based one-time codes beat SMS; hardware keys beat both.",
							XPReward: 150,
						},
					},
				},
				{
					ID:    2,
					Title: "Account Hygiene",
					Lessons: []LessonDef{
						{
							ID:       1,
							Title:    "Password Managers",
							Content:  "A password manager lets every account have a unique random secret.",
							XPReward: 150,
						},
					},
				},
			},
		},
		{
			ID:          3,
			Title:       "Network Security Basics",
			Description: "Как устроены сетевые атаки и как им противостоять.",
			Modules: []ModuleDef{
				{
					ID:    1,
					Title: "Safe Networking",
					Lessons: []LessonDef{
						{
							ID:       1,
							Title:    "Public Wi-Fi Risks",
							Content:  "On untrusted networks assume everything unencrypted is visible to strangers.",
							XPReward: 150,
						},
						{
							ID:       2,
							Title:    "Understanding Ports and Protocols",
							Content:  "HTTP speaks on port 80, HTTPS on 443; firewalls reason in these terms.",
							XPReward: 200,
							Media: []Media{
								{Kind: MediaVideo, URL: "https://cdn.cyber-academy.dev/network/ports.mp4", Description: "Ports and protocols walkthrough"},
							},
						},
					},
				},
			},
		},
	}
}
