package site

// Static profile content rendered on every page. Projects and work
// history come from the remote data.json when it is reachable; the
// fallbacks below keep the page whole when it is not.

type Profile struct {
	Name     string
	Title    string
	Bio      string
	GitHub   string
	LinkedIn string
	Email    string
}

type SkillCategory struct {
	Title  string
	Skills []string
}

type EducationEntry struct {
	Degree      string
	Institution string
	StartDate   string
	EndDate     string
	Notes       []string
}

var profile = Profile{
	Name:  "Taha Kaçmaz",
	Title: "Backend Developer",
	Bio: `Backend developer with 5+ years of experience building scalable
applications. Passionate about creating efficient, maintainable systems
and exploring emerging technologies.`,
	GitHub:   "noirrs",
	LinkedIn: "tahakacmaz",
	Email:    "hi@noir.land",
}

var skillCategories = []SkillCategory{
	{Title: "Languages", Skills: []string{"TypeScript", "Go", "Dart", "Python", "JavaScript"}},
	{Title: "Backend & Frameworks", Skills: []string{"Node.js", "NestJS", "Express.js", "Fastify"}},
	{Title: "Frontend & UI", Skills: []string{"React.js", "Next.js", "Flutter", "Tailwind CSS"}},
	{Title: "DevOps & Infrastructure", Skills: []string{"Docker", "Git", "GitHub Actions", "Azure", "AWS", "MongoDB", "Firebase"}},
	{Title: "Real-time & APIs", Skills: []string{"WebSockets", "Socket.io", "REST APIs"}},
}

var educationEntries = []EducationEntry{
	{
		Degree:      "B.Sc. Computer Engineering",
		Institution: "Self-directed + university coursework",
		StartDate:   "2019",
		EndDate:     "2023",
		Notes: []string{
			"Focus on distributed systems and backend architecture",
			"Research: YOLOv8-based computer vision for football analytics",
		},
	},
}

var fallbackData = Data{
	Projects: []Project{
		{
			Name:        "Football Analyzer",
			Emoji:       "🔬",
			Description: "YOLOv8-based computer vision system for tracking players, ball & referees, estimating speed, distance, team assignment & ball possession in football matches.",
			Link:        "https://github.com/noirrs/football-analyser",
			Status:      "In Publication",
			Type:        "Research",
			Title:       "Computer Vision",
		},
	},
	Works: []Work{
		{
			Company:     "Freelance",
			Role:        "Backend Developer",
			StartDate:   "2019",
			EndDate:     "Present",
			Description: "Scalable APIs and real-time services with Node.js, Go and cloud infrastructure.",
		},
	},
}
