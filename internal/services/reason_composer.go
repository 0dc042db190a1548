package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jooyeonthemaster/book/internal/domain"
	"github.com/jooyeonthemaster/book/internal/platform/textutil"
)

const fallbackReasonPrefix = "[폴백 모드] "

// ComposeMatchReason explains why book and fragrance were chosen for prefs, ending with the confidence percentage.
func ComposeMatchReason(book Book, fragrance Fragrance, prefs UserPreferences, confidence int) string {
	var clauses []string

	if prefs.Age != "" && slices.Contains(IntensitiesForAge(prefs.Age), fragrance.Intensity) {
		clauses = append(clauses, fmt.Sprintf("%s에게 적합한 %s 강도의 향", prefs.Age, fragrance.Intensity))
	}

	if len(prefs.FavoriteGenres) > 0 {
		genres := prefs.FavoriteGenres
		if len(genres) > 2 {
			genres = genres[:2]
		}
		labels := make([]string, 0, len(genres))
		for _, genre := range genres {
			labels = append(labels, string(genre))
		}
		clauses = append(clauses, fmt.Sprintf("선호하시는 %s 장르와 조화로운 %s 계열", strings.Join(labels, ", "), fragrance.Category))
	}

	if len(prefs.PersonalityTraits) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s 성향에 어울리는 %s", prefs.PersonalityTraits[0], fragrance.LiteraryName))
	}

	if prefs.CurrentMood != "" {
		clauses = append(clauses, fmt.Sprintf("현재 %s 기분에 맞는 향기", prefs.CurrentMood))
	}

	if len(book.Themes) > 0 {
		clauses = append(clauses, fmt.Sprintf("'%s'의 %s 테마와 완벽한 조화", book.Title, book.Themes[0]))
	}

	if len(clauses) == 0 {
		return fmt.Sprintf("당신의 취향을 종합 분석하여 %d%% 일치도로 추천드립니다.", confidence)
	}
	return strings.Join(clauses, ", ") + fmt.Sprintf("를 고려하여 %d%% 일치도로 추천드립니다.", confidence)
}

// FallbackMatchReason marks a reason produced by the local pipeline.
func FallbackMatchReason(reason string) string {
	return fallbackReasonPrefix + reason
}

// IsFallbackReason reports whether reason was produced by the local pipeline.
func IsFallbackReason(reason string) bool {
	return strings.HasPrefix(reason, fallbackReasonPrefix)
}

var moodCodeTexts = map[domain.MoodCode]string{
	domain.MoodCodePeaceful:      "평온한 마음",
	domain.MoodCodeCurious:       "호기심 가득한 상태",
	domain.MoodCodeMelancholy:    "사색적인 기분",
	domain.MoodCodeEnergetic:     "활기찬 에너지",
	domain.MoodCodeRomantic:      "로맨틱한 감성",
	domain.MoodCodePhilosophical: "철학적 사고",
}

var lifeStageTexts = map[domain.LifeStage]string{
	domain.LifeStageYouthGrowth:          "성장의 시기",
	domain.LifeStageLoveRelationship:     "사랑과 관계를 고민하는 시기",
	domain.LifeStageCareerSuccess:        "커리어 성공을 추구하는 시기",
	domain.LifeStageFamilyResponsibility: "가족에 대한 책임감을 느끼는 시기",
	domain.LifeStageStabilityMaturity:    "안정과 성숙을 추구하는 시기",
	domain.LifeStageFreedomExploration:   "자유와 탐험을 원하는 시기",
	domain.LifeStageReflectionWisdom:     "성찰과 지혜를 구하는 시기",
}

// ComposeBookReason explains how a book the reader picked fits their answers.
func ComposeBookReason(book Book, fragrance Fragrance, prefs UserPreferences) string {
	var clauses []string

	if moodText := bookMoodText(prefs); moodText != "" {
		clauses = append(clauses, fmt.Sprintf("현재 %s에 있는 당신에게 '%s'은 완벽한 선택입니다", moodText, book.Title))
	}

	if prefs.LifeStage != "" {
		stageText, ok := lifeStageTexts[prefs.LifeStage]
		if !ok {
			stageText = string(prefs.LifeStage)
		}
		clauses = append(clauses, fmt.Sprintf("%s에 있는 당신의 마음과 깊이 공명할 것입니다", stageText))
	}

	if len(fragrance.Mood) > 0 {
		moods := fragrance.Mood
		if len(moods) > 2 {
			moods = moods[:2]
		}
		clauses = append(clauses, fmt.Sprintf("%s 향기는 이 작품의 정서와 완벽하게 어우러져 더욱 몰입감 있는 독서 경험을 선사할 것입니다", strings.Join(moods, ", ")))
	}

	if common := commonThemes(prefs.Themes, book.Themes); len(common) > 0 {
		clauses = append(clauses, fmt.Sprintf("특히 관심을 보이신 %s 주제를 깊이 있게 다루고 있어 더욱 의미 있는 독서가 될 것입니다", strings.Join(common, ", ")))
	}

	if len(clauses) == 0 {
		clauses = append(clauses, fmt.Sprintf("'%s'의 독특한 세계관과 %s의 섬세한 향기가 만나 당신만의 특별한 문학적 경험을 만들어낼 것입니다", book.Title, fragrance.LiteraryName))
	}
	return strings.Join(clauses, ". ") + "."
}

func bookMoodText(prefs UserPreferences) string {
	if text, ok := moodCodeTexts[domain.MoodCode(prefs.MoodPreference)]; ok {
		return text
	}
	return string(prefs.CurrentMood)
}

func commonThemes(userThemes, bookThemes []string) []string {
	var common []string
	for _, theme := range userThemes {
		for _, bookTheme := range bookThemes {
			if textutil.OverlapsFold(theme, bookTheme) {
				common = append(common, theme)
				break
			}
		}
	}
	return common
}
