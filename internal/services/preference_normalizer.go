package services

import (
	"slices"
	"strings"

	"github.com/jooyeonthemaster/book/internal/domain"
	"github.com/jooyeonthemaster/book/internal/platform/textutil"
)

const (
	defaultReadingHabits       = "편안한 환경에서 꾸준히"
	defaultFragrancePreference = "자연스럽고 편안한 향"
)

// SurveyInput is one of the supported survey shapes: FiveStepSurvey or ClassicSurvey.
type SurveyInput interface {
	surveyVersion() string
}

// FiveStepSurvey is the current five question survey.
type FiveStepSurvey struct {
	CurrentMood string
	LifeStage   string
	StoryStyle  string
	Themes      []string
	BookMeaning string
}

func (FiveStepSurvey) surveyVersion() string { return "five_step" }

// ClassicSurvey is the earlier long-form survey that asks for every preference directly.
type ClassicSurvey struct {
	Age                 string
	Gender              string
	FavoriteGenres      []string
	ReadingHabits       string
	CurrentMood         string
	MoodPreference      string
	FragrancePreference string
	PersonalityTraits   []string
	Themes              []string
	BookMeaning         string
	AdditionalNotes     string
}

func (ClassicSurvey) surveyVersion() string { return "classic" }

// SurveyVersion names the shape of input for logs and events.
func SurveyVersion(input SurveyInput) string {
	if input == nil {
		return ""
	}
	return input.surveyVersion()
}

// UnmappedLabel records a survey value that no lookup table recognised.
type UnmappedLabel struct {
	Field string
	Value string
}

// Normalized is the canonical preference record together with the labels that fell back to defaults.
type Normalized struct {
	Preferences UserPreferences
	Unmapped    []UnmappedLabel
}

var lifeStageAges = map[domain.LifeStage]domain.AgeBand{
	domain.LifeStageYouthGrowth:          domain.AgeTwenties,
	domain.LifeStageLoveRelationship:     domain.AgeTwenties,
	domain.LifeStageCareerSuccess:        domain.AgeThirties,
	domain.LifeStageFamilyResponsibility: domain.AgeThirties,
	domain.LifeStageStabilityMaturity:    domain.AgeForties,
	domain.LifeStageFreedomExploration:   domain.AgeThirties,
	domain.LifeStageReflectionWisdom:     domain.AgeFiftiesUp,
}

var storyStyleGenres = map[domain.StoryStyle][]domain.Genre{
	domain.StoryStyleEmotional:    {domain.GenreFiction, domain.GenreEssay},
	domain.StoryStyleIntellectual: {domain.GenreHumanities, domain.GenrePhilosophy, domain.GenreScience},
	domain.StoryStyleSuspenseful:  {domain.GenreMystery, domain.GenreSFFantasy},
	domain.StoryStyleRealistic:    {domain.GenreFiction, domain.GenreSociety},
	domain.StoryStyleFantasy:      {domain.GenreSFFantasy, domain.GenreArt},
	domain.StoryStyleHistorical:   {domain.GenreHistory, domain.GenreHumanities},
}

var themeGenres = map[domain.ThemeCode]domain.Genre{
	domain.ThemeLoveRomance:       domain.GenreRomance,
	domain.ThemeGrowthChange:      domain.GenreSelfHelp,
	domain.ThemeMysteryUnknown:    domain.GenreMystery,
	domain.ThemePhilosophyLife:    domain.GenrePhilosophy,
	domain.ThemeArtBeauty:         domain.GenreArt,
	domain.ThemeScienceFuture:     domain.GenreScience,
	domain.ThemeHistoryCulture:    domain.GenreHistory,
	domain.ThemeNatureEnvironment: domain.GenreNature,
	domain.ThemePsychologyHuman:   domain.GenrePsychology,
	domain.ThemeSocietyPolitics:   domain.GenreSociety,
}

var moodReadingHabits = map[domain.MoodCode]string{
	domain.MoodCodePeaceful:      "조용한 곳에서 천천히",
	domain.MoodCodeCurious:       "다양한 장소에서 활발하게",
	domain.MoodCodeMelancholy:    "혼자만의 공간에서 깊이",
	domain.MoodCodeEnergetic:     "짧은 시간에 집중해서",
	domain.MoodCodeRomantic:      "분위기 있는 곳에서",
	domain.MoodCodePhilosophical: "사색할 수 있는 환경에서",
}

var moodFragrancePreferences = map[domain.MoodCode]string{
	domain.MoodCodePeaceful:      "차분하고 은은한 향",
	domain.MoodCodeCurious:       "상쾌하고 활기찬 향",
	domain.MoodCodeMelancholy:    "깊이 있고 복합적인 향",
	domain.MoodCodeEnergetic:     "시원하고 역동적인 향",
	domain.MoodCodeRomantic:      "달콤하고 감성적인 향",
	domain.MoodCodePhilosophical: "우디하고 지적인 향",
}

var moodTraits = map[domain.MoodCode][]domain.Trait{
	domain.MoodCodePeaceful:      {domain.TraitStable, domain.TraitIntroverted, domain.TraitCalm},
	domain.MoodCodeCurious:       {domain.TraitCurious, domain.TraitExtroverted, domain.TraitAdventurous},
	domain.MoodCodeMelancholy:    {domain.TraitReflective, domain.TraitEmotional, domain.TraitIntroverted},
	domain.MoodCodeEnergetic:     {domain.TraitActive, domain.TraitExtroverted, domain.TraitPositive},
	domain.MoodCodeRomantic:      {domain.TraitEmotional, domain.TraitRomantic, domain.TraitArtistic},
	domain.MoodCodePhilosophical: {domain.TraitIntellectual, domain.TraitReflective, domain.TraitPerfectionist},
}

var lifeStageTraits = map[domain.LifeStage][]domain.Trait{
	domain.LifeStageYouthGrowth:          {domain.TraitChallenging, domain.TraitDreaming},
	domain.LifeStageLoveRelationship:     {domain.TraitSociable, domain.TraitSensitive},
	domain.LifeStageCareerSuccess:        {domain.TraitGoalOriented, domain.TraitPractical},
	domain.LifeStageFamilyResponsibility: {domain.TraitResponsible, domain.TraitStable},
	domain.LifeStageStabilityMaturity:    {domain.TraitMature, domain.TraitBalanced},
	domain.LifeStageFreedomExploration:   {domain.TraitFree, domain.TraitIndependent},
	domain.LifeStageReflectionWisdom:     {domain.TraitWise, domain.TraitIntrospective},
}

// ValidateSurvey checks the fields that no default can stand in for: every survey needs themes and
// a book meaning, and the five-step survey also needs its three single-choice answers.
func ValidateSurvey(input SurveyInput) error {
	var problems []FieldProblem
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, FieldProblem{Field: field, Message: "is required"})
		}
	}
	requireList := func(field string, values []string) {
		if len(textutil.NormalizeList(values)) == 0 {
			problems = append(problems, FieldProblem{Field: field, Message: "must contain at least one value"})
		}
	}

	switch survey := input.(type) {
	case FiveStepSurvey:
		require("currentMood", survey.CurrentMood)
		require("lifeStage", survey.LifeStage)
		require("storyStyle", survey.StoryStyle)
		requireList("themes", survey.Themes)
		require("bookMeaning", survey.BookMeaning)
	case *FiveStepSurvey:
		if survey == nil {
			return &ValidationError{Problems: []FieldProblem{{Field: "survey", Message: "is required"}}}
		}
		return ValidateSurvey(*survey)
	case ClassicSurvey:
		requireList("themes", survey.Themes)
		require("bookMeaning", survey.BookMeaning)
	case *ClassicSurvey:
		if survey == nil {
			return &ValidationError{Problems: []FieldProblem{{Field: "survey", Message: "is required"}}}
		}
		return ValidateSurvey(*survey)
	default:
		problems = append(problems, FieldProblem{Field: "survey", Message: "is required"})
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// NormalizeSurvey maps any supported survey shape onto UserPreferences. It never fails:
// unknown labels take the default branch and are reported in Unmapped.
func NormalizeSurvey(input SurveyInput) Normalized {
	switch survey := input.(type) {
	case FiveStepSurvey:
		return normalizeFiveStep(survey)
	case *FiveStepSurvey:
		if survey != nil {
			return normalizeFiveStep(*survey)
		}
	case ClassicSurvey:
		return normalizeClassic(survey)
	case *ClassicSurvey:
		if survey != nil {
			return normalizeClassic(*survey)
		}
	}
	return normalizeClassic(ClassicSurvey{})
}

type unmappedRecorder struct {
	labels []UnmappedLabel
}

func (r *unmappedRecorder) add(field, value string) {
	r.labels = append(r.labels, UnmappedLabel{Field: field, Value: value})
}

func normalizeFiveStep(survey FiveStepSurvey) Normalized {
	rec := &unmappedRecorder{}
	moodCode := domain.MoodCode(textutil.Normalize(survey.CurrentMood))
	lifeStage := domain.LifeStage(textutil.Normalize(survey.LifeStage))
	storyStyle := domain.StoryStyle(textutil.Normalize(survey.StoryStyle))
	themes := textutil.NormalizeList(survey.Themes)
	meaning := textutil.Normalize(survey.BookMeaning)

	age, ok := lifeStageAges[lifeStage]
	if !ok {
		age = domain.DefaultAgeBand
		if lifeStage != "" {
			rec.add("lifeStage", string(lifeStage))
		}
	}

	genres := make([]domain.Genre, 0, 4)
	if mapped, ok := storyStyleGenres[storyStyle]; ok {
		genres = appendUniqueGenres(genres, mapped...)
	} else if storyStyle != "" {
		rec.add("storyStyle", string(storyStyle))
	}
	for _, theme := range themes {
		if genre, ok := themeGenres[domain.ThemeCode(theme)]; ok {
			genres = appendUniqueGenres(genres, genre)
			continue
		}
		rec.add("themes", theme)
	}
	if len(genres) == 0 {
		genres = []domain.Genre{domain.DefaultGenre}
	}

	readingHabits, ok := moodReadingHabits[moodCode]
	if !ok {
		readingHabits = defaultReadingHabits
	}
	fragrancePreference, ok := moodFragrancePreferences[moodCode]
	if !ok {
		fragrancePreference = defaultFragrancePreference
	}

	traits := make([]domain.Trait, 0, 5)
	traits = appendUniqueTraits(traits, moodTraits[moodCode]...)
	traits = appendUniqueTraits(traits, lifeStageTraits[lifeStage]...)
	if len(traits) == 0 {
		traits = append(traits, domain.DefaultTraits...)
	}

	mood, ok := moodCode.Label()
	if !ok && moodCode != "" {
		rec.add("currentMood", string(moodCode))
	}

	return Normalized{
		Preferences: UserPreferences{
			Age:                 age,
			Gender:              domain.GenderOther,
			FavoriteGenres:      genres,
			ReadingHabits:       readingHabits,
			CurrentMood:         mood,
			MoodPreference:      string(moodCode),
			FragrancePreference: fragrancePreference,
			PersonalityTraits:   traits,
			Themes:              themes,
			BookMeaning:         meaning,
			AdditionalNotes:     meaning,
			LifeStage:           lifeStage,
			StoryStyle:          storyStyle,
		},
		Unmapped: rec.labels,
	}
}

func normalizeClassic(survey ClassicSurvey) Normalized {
	rec := &unmappedRecorder{}

	age := domain.DefaultAgeBand
	if raw := textutil.Normalize(survey.Age); raw != "" {
		parsed, ok := domain.ParseAgeBand(raw)
		if !ok {
			rec.add("age", raw)
		}
		age = parsed
	}

	gender := domain.GenderOther
	if raw := textutil.Normalize(survey.Gender); raw != "" {
		parsed, ok := domain.ParseGender(raw)
		if !ok {
			rec.add("gender", raw)
		}
		gender = parsed
	}

	themes := textutil.NormalizeList(survey.Themes)

	var genres []domain.Genre
	for _, raw := range textutil.NormalizeList(survey.FavoriteGenres) {
		genre, ok := domain.ParseGenre(raw)
		if !ok {
			rec.add("favoriteGenres", raw)
		}
		genres = appendUniqueGenres(genres, genre)
	}
	if len(genres) == 0 {
		for _, theme := range themes {
			if genre, ok := themeGenres[domain.ThemeCode(theme)]; ok {
				genres = appendUniqueGenres(genres, genre)
			}
		}
	}
	if len(genres) == 0 {
		genres = []domain.Genre{domain.DefaultGenre}
	}

	var mood domain.Mood
	rawMood := textutil.Normalize(survey.CurrentMood)
	if rawMood != "" {
		parsed, ok := domain.ParseMood(rawMood)
		if !ok {
			rec.add("currentMood", rawMood)
		}
		mood = parsed
	}

	var traits []domain.Trait
	for _, raw := range textutil.NormalizeList(survey.PersonalityTraits) {
		trait, ok := domain.ParseTrait(raw)
		if !ok {
			rec.add("personalityTraits", raw)
		}
		traits = appendUniqueTraits(traits, trait)
	}
	if len(traits) == 0 {
		traits = appendUniqueTraits(traits, moodTraits[domain.MoodCode(rawMood)]...)
	}
	if len(traits) == 0 {
		traits = append(traits, domain.DefaultTraits...)
	}

	moodPreference := textutil.Normalize(survey.MoodPreference)
	if moodPreference == "" {
		moodPreference = rawMood
	}

	return Normalized{
		Preferences: UserPreferences{
			Age:                 age,
			Gender:              gender,
			FavoriteGenres:      genres,
			ReadingHabits:       textutil.Normalize(survey.ReadingHabits),
			CurrentMood:         mood,
			MoodPreference:      moodPreference,
			FragrancePreference: textutil.Normalize(survey.FragrancePreference),
			PersonalityTraits:   traits,
			Themes:              themes,
			BookMeaning:         textutil.Normalize(survey.BookMeaning),
			AdditionalNotes:     textutil.Normalize(survey.AdditionalNotes),
		},
		Unmapped: rec.labels,
	}
}

func appendUniqueGenres(dst []domain.Genre, values ...domain.Genre) []domain.Genre {
	for _, value := range values {
		if value != "" && !slices.Contains(dst, value) {
			dst = append(dst, value)
		}
	}
	return dst
}

func appendUniqueTraits(dst []domain.Trait, values ...domain.Trait) []domain.Trait {
	for _, value := range values {
		if value != "" && !slices.Contains(dst, value) {
			dst = append(dst, value)
		}
	}
	return dst
}
