package memory

import "strings"

// topicRule maps a topic label to the keywords that trigger it.
type topicRule struct {
	Topic    string
	Keywords []string
}

// topicTable classifies user messages into support topics. The keyword lists
// mix Hebrew and English because users of the hotel-management product write
// in both.
var topicTable = []topicRule{
	{"הזמנות", []string{"הזמנה", "book", "reservation"}},
	{"דוחות", []string{"דוח", "report", "סטטיסטיקה"}},
	{"חדרים", []string{"חדר", "room"}},
	{"תשלומים", []string{"תשלום", "payment", "כסף"}},
	{"תמיכה טכנית", []string{"בעיה", "שגיאה", "תקלה"}},
	{"התחברות", []string{"התחבר", "login", "סיסמה"}},
}

// extractTopics returns the topics whose keywords appear in the message,
// in table order.
func extractTopics(message string) []string {
	lower := strings.ToLower(message)
	var topics []string
	for _, rule := range topicTable {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				topics = append(topics, rule.Topic)
				break
			}
		}
	}
	return topics
}
