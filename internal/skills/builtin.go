package skills

import (
	"context"
	"regexp"
	"strings"

	"github.com/noovy/concierge/internal/knowledge"
)

// RegisterDefaults registers the built-in skills in their standard order.
// The knowledge search skill is skipped when kb is nil.
func RegisterDefaults(r *Registry, kb knowledge.Store) {
	if kb != nil {
		r.Register(NewKnowledgeSearch(kb))
	}
	r.Register(NewReservation())
	r.Register(NewReportGeneration())
	r.Register(NewTroubleshooting())
	r.Register(NewLanguageProcessing())
}

// KnowledgeSearch answers "how do I" style questions from the knowledge base.
type KnowledgeSearch struct {
	info
	kb knowledge.Store
}

func NewKnowledgeSearch(kb knowledge.Store) *KnowledgeSearch {
	return &KnowledgeSearch{
		info: info{
			name:        "חיפוש ידע",
			description: "חיפוש מידע במאגר הידע המקצועי",
			category:    "search",
		},
		kb: kb,
	}
}

func (s *KnowledgeSearch) CanHandle(query string) bool {
	return containsAny(query, []string{"איך", "מה זה", "הסבר", "למד", "מידע", "תיעוד"})
}

func (s *KnowledgeSearch) Execute(ctx context.Context, query string) (map[string]any, error) {
	results, err := s.kb.Search(ctx, query, 5)
	if err != nil {
		return nil, err
	}
	block, err := knowledge.ContextForQuery(ctx, s.kb, query, 3)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"skill_used": s.name,
		"results":    results,
		"context":    block,
	}, nil
}

// Reservation guides booking create, update and cancel flows.
type Reservation struct{ info }

func NewReservation() *Reservation {
	return &Reservation{info{
		name:        "ניהול הזמנות",
		description: "עזרה בניהול והזמנת חדרים",
		category:    "reservations",
	}}
}

func (s *Reservation) CanHandle(query string) bool {
	lower := strings.ToLower(query)
	return containsAny(lower, []string{"הזמנה", "חדר", "הזמן", "book", "reservation", "check-in", "check-out"})
}

func (s *Reservation) Execute(ctx context.Context, query string) (map[string]any, error) {
	intent := "general"
	switch {
	case containsAny(query, []string{"חדש", "צור"}):
		intent = "create"
	case containsAny(query, []string{"עדכן", "שנה"}):
		intent = "update"
	case containsAny(query, []string{"מחק", "בטל"}):
		intent = "cancel"
	}

	guidance := map[string]string{
		"create":  "ליצירת הזמנה חדשה: תפריט הזמנות > הזמנה חדשה > בחר תאריכים וחדר",
		"update":  "לעדכון הזמנה: תפריט הזמנות > חפש הזמנה > ערוך",
		"cancel":  "לביטול הזמנה: תפריט הזמנות > חפש הזמנה > בטל הזמנה",
		"general": "מערכת ההזמנות מאפשרת ניהול מלא של הזמנות החדרים",
	}

	return map[string]any{
		"skill_used": s.name,
		"intent":     intent,
		"category":   s.category,
		"guidance":   guidance[intent],
	}, nil
}

// ReportGeneration guides the reporting menus.
type ReportGeneration struct{ info }

func NewReportGeneration() *ReportGeneration {
	return &ReportGeneration{info{
		name:        "יצירת דוחות",
		description: "הפקת דוחות ואנליטיקה",
		category:    "reports",
	}}
}

func (s *ReportGeneration) CanHandle(query string) bool {
	lower := strings.ToLower(query)
	return containsAny(lower, []string{"דוח", "report", "תפוסה", "הכנסות", "סטטיסטיקה", "נתונים"})
}

func (s *ReportGeneration) Execute(ctx context.Context, query string) (map[string]any, error) {
	reportType := "general"
	switch {
	case strings.Contains(query, "תפוסה"):
		reportType = "occupancy"
	case containsAny(query, []string{"הכנסות", "כספי"}):
		reportType = "revenue"
	case strings.Contains(query, "תשלומים"):
		reportType = "payments"
	}

	instructions := map[string]string{
		"occupancy": "דוח תפוסה: תפריט דוחות > תפוסה > בחר תאריך > הפק דוח",
		"revenue":   "דוח הכנסות: תפריט דוחות > הכנסות > בחר תקופה > ייצא",
		"payments":  "דוח תשלומים: תפריט דוחות > תשלומים > סנן לפי סטטוס",
		"general":   "מערכת הדוחות: תפריט דוחות > בחר סוג דוח > הגדר פרמטרים",
	}

	return map[string]any{
		"skill_used":   s.name,
		"report_type":  reportType,
		"category":     s.category,
		"instructions": instructions[reportType],
	}, nil
}

// Troubleshooting classifies technical issues and suggests fixes.
type Troubleshooting struct{ info }

func NewTroubleshooting() *Troubleshooting {
	return &Troubleshooting{info{
		name:        "פתרון בעיות",
		description: "תמיכה טכנית ופתרון תקלות",
		category:    "troubleshooting",
	}}
}

func (s *Troubleshooting) CanHandle(query string) bool {
	lower := strings.ToLower(query)
	return containsAny(lower, []string{"בעיה", "שגיאה", "תקלה", "לא עובד", "error", "bug", "תקוע", "איטי"})
}

func (s *Troubleshooting) Execute(ctx context.Context, query string) (map[string]any, error) {
	lower := strings.ToLower(query)

	issueType := "general"
	switch {
	case containsAny(lower, []string{"איטי", "slow"}):
		issueType = "performance"
	case containsAny(lower, []string{"הדפס", "print"}):
		issueType = "printing"
	case containsAny(lower, []string{"חיבור", "connection"}):
		issueType = "connectivity"
	case containsAny(lower, []string{"התחבר", "login"}):
		issueType = "login"
	}

	solutions := map[string]string{
		"performance":  "1. נקה cache של הדפדפן\n2. סגור טאבים מיותרים\n3. רענן את הדף",
		"printing":     "1. בדוק חיבור למדפסת\n2. ודא שיש נייר וטונר\n3. נסה להדפיס דף בדיקה",
		"connectivity": "1. בדוק חיבור לאינטרנט\n2. נסה לרענן את הדף\n3. צור קשר עם IT",
		"login":        "1. בדוק שם משתמש וסיסמה\n2. נסה \"שכחתי סיסמה\"\n3. צור קשר עם מנהל",
		"general":      "אנא תאר את הבעיה ביתר פירוט כדי שאוכל לעזור טוב יותר",
	}

	priority := "medium"
	if issueType == "connectivity" || issueType == "login" {
		priority = "high"
	}

	return map[string]any{
		"skill_used": s.name,
		"issue_type": issueType,
		"category":   s.category,
		"solution":   solutions[issueType],
		"priority":   priority,
	}, nil
}

// LanguageProcessing extracts entities and sentiment from every message.
type LanguageProcessing struct{ info }

func NewLanguageProcessing() *LanguageProcessing {
	return &LanguageProcessing{info{
		name:        "עיבוד שפה",
		description: "הבנה וניתוח של שפה טבעית",
		category:    "language",
	}}
}

// CanHandle always matches: entity extraction applies to every query.
func (s *LanguageProcessing) CanHandle(query string) bool { return true }

var (
	datePattern   = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}|\d{1,2}\.\d{1,2}\.\d{4}|היום|מחר|אתמול`)
	numberPattern = regexp.MustCompile(`\d+`)
	actionWords   = []string{"צור", "מחק", "עדכן", "הצג", "חפש", "הדפס", "ייצא"}
	positiveWords = []string{"תודה", "מצוין", "נהדר", "עזר"}
	negativeWords = []string{"בעיה", "שגיאה", "לא עובד", "תקלה"}
)

func (s *LanguageProcessing) Execute(ctx context.Context, query string) (map[string]any, error) {
	actions := make([]string, 0, len(actionWords))
	for _, w := range actionWords {
		if strings.Contains(query, w) {
			actions = append(actions, w)
		}
	}

	return map[string]any{
		"skill_used": s.name,
		"entities": map[string]any{
			"dates":   datePattern.FindAllString(query, -1),
			"numbers": numberPattern.FindAllString(query, -1),
			"actions": actions,
		},
		"sentiment": sentiment(query),
		"language":  "hebrew",
		"category":  s.category,
	}, nil
}

func sentiment(text string) string {
	positive, negative := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			negative++
		}
	}
	switch {
	case positive > negative:
		return "positive"
	case negative > positive:
		return "negative"
	default:
		return "neutral"
	}
}
