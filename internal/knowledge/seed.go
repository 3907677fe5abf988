package knowledge

import "context"

// baseKnowledge is the starter content loaded into an empty knowledge base.
var baseKnowledge = []Item{
	{
		Title:    "התחברות למערכת",
		Content:  "להתחברות למערכת יש להזין שם משתמש וסיסמה בדף הכניסה. במקרה של שכחת סיסמה, יש ללחוץ על 'שכחתי סיסמה' ולעקוב אחר ההוראות.",
		Category: "authentication",
		Tags:     []string{"login", "password", "התחברות"},
	},
	{
		Title:    "ניהול הזמנות",
		Content:  "לניהול הזמנות, היכנס לתפריט 'הזמנות', בחר את התאריך והחדר הרצוי. ניתן להוסיף פרטי אורח, לבחור חבילות ושירותים נוספים. לאחר מילוי כל הפרטים, לחץ על 'שמור הזמנה'.",
		Category: "reservations",
		Tags:     []string{"booking", "הזמנות", "חדרים"},
	},
	{
		Title:    "דוחות ותשלומים",
		Content:  "מערכת הדוחות מאפשרת ליצור דוחות על תפוסה, הכנסות, ותשלומים. ניתן לסנן לפי תאריכים, חדרים וסטטוס תשלום. הדוחות ניתנים לייצוא לאקסל או PDF.",
		Category: "reports",
		Tags:     []string{"reports", "payments", "דוחות", "תשלומים"},
	},
	{
		Title:    "ניהול חדרים",
		Content:  "במסך ניהול החדרים ניתן לראות את סטטוס כל חדר (פנוי, תפוס, בניקיון), לעדכן מחירים, להגדיר סוגי חדרים ולנהל תחזוקה.",
		Category: "rooms",
		Tags:     []string{"rooms", "חדרים", "תחזוקה"},
	},
	{
		Title:    "תמיכה טכנית בעיות נפוצות",
		Content:  "בעיות נפוצות: מערכת איטית - נקה cache של הדפדפן. שגיאת חיבור - בדוק חיבור לאינטרנט. לא מצליח להדפיס - בדוק הגדרות מדפסת. נתונים לא מתעדכנים - רענן את הדף.",
		Category: "troubleshooting",
		Tags:     []string{"technical support", "תמיכה טכנית", "בעיות"},
	},
}

// Seed loads the starter articles into an empty store. A non-empty store is
// left untouched.
func Seed(ctx context.Context, s Store) error {
	if s.Count() > 0 {
		return nil
	}
	for _, item := range baseKnowledge {
		if _, err := s.Add(ctx, item); err != nil {
			return err
		}
	}
	return nil
}
