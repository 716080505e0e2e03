package services

import (
	"regexp"
	"strings"
)

// Lookup tables for the heuristic analyzer. They are plain data so new
// languages, headers or industries only need a new row.

type languageTable struct {
	Code  string
	Words []string
}

// minLanguageHits keeps a stray foreign word from flipping an English CV.
const minLanguageHits = 2

var languageTables = []languageTable{
	{Code: "es", Words: []string{"experiencia", "trabajo", "educación", "habilidades", "empresa", "idiomas", "logros", "responsable"}},
	{Code: "fr", Words: []string{"expérience", "compétences", "entreprise", "poste", "langues", "diplôme", "réalisations"}},
	{Code: "de", Words: []string{"erfahrung", "berufserfahrung", "ausbildung", "kenntnisse", "fähigkeiten", "unternehmen", "sprachen"}},
	{Code: "pt", Words: []string{"experiência", "formação", "competências", "empresa", "idiomas", "conquistas", "responsável"}},
}

type sectionHeader struct {
	Label     string
	Canonical string
}

// Longer labels come first so "WORK EXPERIENCE" wins over "EXPERIENCE".
var sectionHeaders = []sectionHeader{
	{"PROFESSIONAL SUMMARY", "summary"},
	{"SUMMARY", "summary"},
	{"PROFILE", "profile"},
	{"CAREER OBJECTIVE", "objective"},
	{"OBJECTIVE", "objective"},
	{"PROFESSIONAL EXPERIENCE", "experience"},
	{"WORK EXPERIENCE", "experience"},
	{"EMPLOYMENT HISTORY", "experience"},
	{"EMPLOYMENT", "experience"},
	{"EXPERIENCE", "experience"},
	{"EDUCATION", "education"},
	{"TECHNICAL SKILLS", "skills"},
	{"SKILLS", "skills"},
	{"PROJECTS", "projects"},
	{"CERTIFICATIONS", "certifications"},
	{"LANGUAGES", "languages"},
	{"AWARDS", "awards"},
	{"INTERESTS", "interests"},
	{"REFERENCES", "references"},
}

var sectionHeaderPattern = buildSectionHeaderPattern(sectionHeaders)

func buildSectionHeaderPattern(headers []sectionHeader) *regexp.Regexp {
	labels := make([]string, 0, len(headers))
	for _, h := range headers {
		labels = append(labels, regexp.QuoteMeta(h.Label))
	}
	return regexp.MustCompile(`(?i)^\s*(` + strings.Join(labels, "|") + `)\s*(?::\s*(.*))?$`)
}

func canonicalSection(label string) string {
	upper := strings.ToUpper(strings.TrimSpace(label))
	for _, h := range sectionHeaders {
		if h.Label == upper {
			return h.Canonical
		}
	}
	return strings.ToLower(upper)
}

var keywordPattern = regexp.MustCompile(`(?i)\b(managed|led|developed|designed|implemented|created|improved|increased|reduced|launched|delivered|built|analyzed|coordinated|optimized|achieved|collaborated|mentored|negotiated|automated|streamlined|project management|agile|scrum|stakeholders?|budget|strategy|data analysis|customer|revenue|compliance)\b`)

type industryPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// Declaration order breaks ties.
var industryPatterns = []industryPattern{
	{"Technology", regexp.MustCompile(`(?i)\b(python|java|javascript|typescript|golang|sql|software|developer|programming|cloud|aws|azure|devops|kubernetes|docker|api|frontend|backend|react|machine learning|data science)\b`)},
	{"Finance", regexp.MustCompile(`(?i)\b(finance|financial|accounting|accountant|audit|auditing|investment|banking|tax|cpa|portfolio|equity|ledger)\b`)},
	{"Healthcare", regexp.MustCompile(`(?i)\b(patient|patients|clinical|hospital|nurse|nursing|medical|healthcare|physician|pharmacy|therapy)\b`)},
	{"Marketing", regexp.MustCompile(`(?i)\b(marketing|seo|sem|campaigns?|brand|branding|social media|content strategy|advertising)\b`)},
	{"Sales", regexp.MustCompile(`(?i)\b(sales|quota|business development|account executive|crm|lead generation|prospecting|cold calling)\b`)},
	{"Education", regexp.MustCompile(`(?i)\b(teacher|teaching|tutor|tutoring|curriculum|classroom|lesson plans?|pedagogy)\b`)},
	{"Engineering", regexp.MustCompile(`(?i)\b(mechanical|electrical|civil|autocad|cad|manufacturing|structural|solidworks|hvac)\b`)},
	{"HR", regexp.MustCompile(`(?i)\b(recruitment|recruiting|talent acquisition|onboarding|payroll|human resources|employee relations)\b`)},
	{"Legal", regexp.MustCompile(`(?i)\b(legal|attorney|lawyer|litigation|paralegal|counsel|court|law firm)\b`)},
}

// KnownIndustries lists the industry labels the analyzers may emit.
func KnownIndustries() []string {
	names := make([]string, 0, len(industryPatterns)+1)
	for _, p := range industryPatterns {
		names = append(names, p.Name)
	}
	return append(names, DefaultIndustry)
}

// industryLabels match a known industry name inside a free-form answer.
var industryLabels = func() []industryPattern {
	names := KnownIndustries()
	labels := make([]industryPattern, 0, len(names))
	for _, name := range names {
		labels = append(labels, industryPattern{name, regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)})
	}
	return labels
}()

var (
	bulletLinePattern = regexp.MustCompile(`^\s*(?:[-*•·▪–]|\d+[.)])\s+`)
	yearPattern       = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	skillSplitPattern = regexp.MustCompile(`[,;\n•·|▪]`)
)
