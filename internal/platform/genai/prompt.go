package genai

import (
	"fmt"
	"strings"

	"github.com/jooyeonthemaster/book/internal/domain"
)

const (
	descriptionPreviewRunes = 80
	unanswered              = "응답 없음"
)

// Catalog is the subset of the catalog the prompt needs.
type Catalog interface {
	Books() []domain.Book
	Fragrances() []domain.Fragrance
}

// BuildPrompt renders the recommendation prompt for prefs over every book and fragrance in catalog.
func BuildPrompt(prefs domain.UserPreferences, catalog Catalog) string {
	var b strings.Builder

	b.WriteString("당신은 독자의 내면을 읽어내는 문학 큐레이터이자 조향사입니다.\n")
	b.WriteString("아래 독자 프로필을 분석하여 데이터베이스에서 가장 깊이 공명하는 책 한 권과 그 책에 짝지어진 향기를 고르세요.\n\n")

	b.WriteString("## 독자 프로필\n")
	if prefs.Age != "" {
		fmt.Fprintf(&b, "- 나이: %s\n", prefs.Age)
	}
	if prefs.Gender != "" {
		fmt.Fprintf(&b, "- 성별: %s\n", prefs.Gender)
	}
	fmt.Fprintf(&b, "- 선호 장르: %s\n", orUnanswered(joinGenres(prefs.FavoriteGenres)))
	fmt.Fprintf(&b, "- 성격 특성: %s\n", orUnanswered(joinTraits(prefs.PersonalityTraits)))
	fmt.Fprintf(&b, "- 현재 기분: %s\n", orUnanswered(string(prefs.CurrentMood)))
	fmt.Fprintf(&b, "- 원하는 분위기: %s\n", orUnanswered(prefs.MoodPreference))
	fmt.Fprintf(&b, "- 독서 습관: %s\n", orUnanswered(prefs.ReadingHabits))
	fmt.Fprintf(&b, "- 향기 선호: %s\n", orUnanswered(prefs.FragrancePreference))
	if len(prefs.Themes) > 0 {
		fmt.Fprintf(&b, "- 관심 주제: %s\n", strings.Join(prefs.Themes, ", "))
	}
	fmt.Fprintf(&b, "- 추가 메모: %s\n\n", orUnanswered(prefs.AdditionalNotes))

	b.WriteString("## 책 데이터베이스\n")
	for _, book := range catalog.Books() {
		fmt.Fprintf(&b, "ID:%d \"%s\" by %s [%s]\n", book.ID, book.Title, book.Author, book.Genre)
		fmt.Fprintf(&b, "Description: %s\n", book.Description)
		fmt.Fprintf(&b, "Quote: \"%s\"\n", book.Quote)
		fmt.Fprintf(&b, "Speaker: %s\n", book.Speaker)
		fmt.Fprintf(&b, "Themes: %s\n", orNA(book.Themes))
		fmt.Fprintf(&b, "Keywords: %s\n", orNA(book.Keywords))
		b.WriteString("---\n")
	}

	b.WriteString("\n## 향기 데이터베이스\n")
	for _, fragrance := range catalog.Fragrances() {
		fmt.Fprintf(&b, "ID:%d BookID:%d \"%s\" (%s) [%s] - %s...\n",
			fragrance.ID, fragrance.BookID, fragrance.LiteraryName, fragrance.BaseScent, fragrance.Category,
			previewRunes(fragrance.Description, descriptionPreviewRunes))
	}

	b.WriteString(responseContract)
	return b.String()
}

const responseContract = `
## 출력 형식 (순수 JSON)
{
  "selectedBook": {"id": 숫자, "title": "문자열", "author": "문자열"},
  "selectedFragrance": {"id": 숫자, "literaryName": "문자열", "description": "선택한 책의 문체로 다시 쓴 향기 묘사, 3-4문장"},
  "matchReason": "독자의 실제 응답을 구체적으로 언급한 추천 이유, 최소 5문장",
  "confidence": 85-98 사이 숫자,
  "alternativeBooks": [{"id": 숫자}],
  "alternativeFragrances": [{"id": 숫자}],
  "deepAnalysis": {
    "userPsychology": "문자열",
    "emotionalResonance": "문자열",
    "hiddenNeeds": "문자열",
    "personalKeywords": ["문자열"]
  }
}

규칙:
1. 마크다운 없이 JSON만 출력합니다.
2. selectedFragrance는 반드시 selectedBook의 ID를 BookID로 가진 향기여야 합니다.
3. 모든 ID는 위 데이터베이스에 존재하는 값만 사용합니다.
4. 인용문과 화자는 데이터베이스의 값을 바꾸지 않습니다.
`

func orUnanswered(value string) string {
	if strings.TrimSpace(value) == "" {
		return unanswered
	}
	return value
}

func orNA(values []string) string {
	if len(values) == 0 {
		return "N/A"
	}
	return strings.Join(values, ", ")
}

func joinGenres(genres []domain.Genre) string {
	parts := make([]string, 0, len(genres))
	for _, g := range genres {
		parts = append(parts, string(g))
	}
	return strings.Join(parts, ", ")
}

func joinTraits(traits []domain.Trait) string {
	parts := make([]string, 0, len(traits))
	for _, t := range traits {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ", ")
}

func previewRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
