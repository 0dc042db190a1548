package domain

import "strings"

// AgeBand is the age group a reader belongs to.
type AgeBand string

const (
	AgeTeens       AgeBand = "10대"
	AgeTwenties    AgeBand = "20대"
	AgeThirties    AgeBand = "30대"
	AgeForties     AgeBand = "40대"
	AgeFiftiesUp   AgeBand = "50대 이상"
	DefaultAgeBand         = AgeThirties
)

// ParseAgeBand returns the band for label and whether the label is a known band.
func ParseAgeBand(label string) (AgeBand, bool) {
	switch band := AgeBand(strings.TrimSpace(label)); band {
	case AgeTeens, AgeTwenties, AgeThirties, AgeForties, AgeFiftiesUp:
		return band, true
	default:
		return band, false
	}
}

// Gender is the self-reported gender label; GenderOther is the neutral default.
type Gender string

const (
	GenderFemale Gender = "여성"
	GenderMale   Gender = "남성"
	GenderOther  Gender = "기타"
)

// ParseGender returns the gender for label and whether the label is known.
func ParseGender(label string) (Gender, bool) {
	switch gender := Gender(strings.TrimSpace(label)); gender {
	case GenderFemale, GenderMale, GenderOther:
		return gender, true
	default:
		return gender, false
	}
}

// Genre is a reading genre label.
type Genre string

const (
	GenreFiction    Genre = "소설"
	GenreEssay      Genre = "에세이"
	GenrePoetry     Genre = "시/시집"
	GenreSelfHelp   Genre = "자기계발"
	GenreBusiness   Genre = "경영/경제"
	GenreHealth     Genre = "건강"
	GenreHumanities Genre = "인문학"
	GenreScience    Genre = "과학"
	GenreHistory    Genre = "역사"
	GenrePhilosophy Genre = "철학"
	GenrePsychology Genre = "심리학"
	GenreArt        Genre = "예술"
	GenreTravel     Genre = "여행"
	GenreCooking    Genre = "요리"
	GenreSFFantasy  Genre = "SF/판타지"
	GenreMystery    Genre = "추리/스릴러"
	GenreRomance    Genre = "로맨스"
	GenreReligion   Genre = "종교/영성"
	GenreSociety    Genre = "사회"
	GenreNature     Genre = "자연"
	DefaultGenre          = GenreFiction
)

// ParseGenre returns the genre for label and whether the label is known.
func ParseGenre(label string) (Genre, bool) {
	switch genre := Genre(strings.TrimSpace(label)); genre {
	case GenreFiction, GenreEssay, GenrePoetry, GenreSelfHelp, GenreBusiness, GenreHealth,
		GenreHumanities, GenreScience, GenreHistory, GenrePhilosophy, GenrePsychology, GenreArt,
		GenreTravel, GenreCooking, GenreSFFantasy, GenreMystery, GenreRomance, GenreReligion,
		GenreSociety, GenreNature:
		return genre, true
	default:
		return genre, false
	}
}

// Trait is a personality trait label.
type Trait string

const (
	TraitIntroverted   Trait = "내향적"
	TraitExtroverted   Trait = "외향적"
	TraitEmotional     Trait = "감성적"
	TraitRational      Trait = "이성적"
	TraitAdventurous   Trait = "모험적"
	TraitStable        Trait = "안정적"
	TraitCreative      Trait = "창의적"
	TraitPractical     Trait = "실용적"
	TraitPerfectionist Trait = "완벽주의"
	TraitFree          Trait = "자유로운"
	TraitPlanned       Trait = "계획적"
	TraitSpontaneous   Trait = "즉흥적"

	TraitCalm          Trait = "차분한"
	TraitCurious       Trait = "호기심많은"
	TraitReflective    Trait = "사색적"
	TraitSensitive     Trait = "감정적"
	TraitActive        Trait = "활동적"
	TraitPositive      Trait = "긍정적"
	TraitRomantic      Trait = "로맨틱"
	TraitArtistic      Trait = "예술적"
	TraitIntellectual  Trait = "지적"
	TraitChallenging   Trait = "도전적"
	TraitDreaming      Trait = "꿈꾸는"
	TraitSociable      Trait = "사교적"
	TraitGoalOriented  Trait = "목표지향적"
	TraitResponsible   Trait = "책임감있는"
	TraitMature        Trait = "성숙한"
	TraitBalanced      Trait = "균형잡힌"
	TraitIndependent   Trait = "독립적"
	TraitWise          Trait = "지혜로운"
	TraitIntrospective Trait = "성찰적"
	TraitThoughtful    Trait = "사려깊은"
)

// DefaultTraits is used when no trait can be derived.
var DefaultTraits = []Trait{TraitBalanced, TraitThoughtful}

// ParseTrait returns the trait for label and whether the label is known.
func ParseTrait(label string) (Trait, bool) {
	switch trait := Trait(strings.TrimSpace(label)); trait {
	case TraitIntroverted, TraitExtroverted, TraitEmotional, TraitRational, TraitAdventurous,
		TraitStable, TraitCreative, TraitPractical, TraitPerfectionist, TraitFree, TraitPlanned,
		TraitSpontaneous, TraitCalm, TraitCurious, TraitReflective, TraitSensitive, TraitActive,
		TraitPositive, TraitRomantic, TraitArtistic, TraitIntellectual, TraitChallenging,
		TraitDreaming, TraitSociable, TraitGoalOriented, TraitResponsible, TraitMature,
		TraitBalanced, TraitIndependent, TraitWise, TraitIntrospective, TraitThoughtful:
		return trait, true
	default:
		return trait, false
	}
}

// Mood is the Korean label of the reader's current mood.
type Mood string

const (
	MoodPeaceful  Mood = "평온한"
	MoodEnergetic Mood = "활기찬"
	MoodGloomy    Mood = "우울한"
	MoodStressed  Mood = "스트레스받는"
	MoodExcited   Mood = "설레는"
	MoodPensive   Mood = "사색적인"
	MoodCurious   Mood = "호기심"
	MoodRomantic  Mood = "로맨틱"
)

// MoodCode is the survey code for the current mood question.
type MoodCode string

const (
	MoodCodePeaceful      MoodCode = "peaceful"
	MoodCodeCurious       MoodCode = "curious"
	MoodCodeMelancholy    MoodCode = "melancholy"
	MoodCodeEnergetic     MoodCode = "energetic"
	MoodCodeRomantic      MoodCode = "romantic"
	MoodCodePhilosophical MoodCode = "philosophical"
)

// Label converts the survey code to the Korean mood label.
func (c MoodCode) Label() (Mood, bool) {
	switch c {
	case MoodCodePeaceful:
		return MoodPeaceful, true
	case MoodCodeCurious:
		return MoodCurious, true
	case MoodCodeMelancholy, MoodCodePhilosophical:
		return MoodPensive, true
	case MoodCodeEnergetic:
		return MoodEnergetic, true
	case MoodCodeRomantic:
		return MoodRomantic, true
	default:
		return Mood(c), false
	}
}

// ParseMood accepts either a survey code or a Korean label.
func ParseMood(label string) (Mood, bool) {
	label = strings.TrimSpace(label)
	if mood, ok := MoodCode(label).Label(); ok {
		return mood, true
	}
	switch mood := Mood(label); mood {
	case MoodPeaceful, MoodEnergetic, MoodGloomy, MoodStressed, MoodExcited, MoodPensive, MoodCurious, MoodRomantic:
		return mood, true
	default:
		return mood, false
	}
}

// LifeStage is the survey code for the reader's current life stage.
type LifeStage string

const (
	LifeStageYouthGrowth          LifeStage = "youth_growth"
	LifeStageLoveRelationship     LifeStage = "love_relationship"
	LifeStageCareerSuccess        LifeStage = "career_success"
	LifeStageFamilyResponsibility LifeStage = "family_responsibility"
	LifeStageStabilityMaturity    LifeStage = "stability_maturity"
	LifeStageFreedomExploration   LifeStage = "freedom_exploration"
	LifeStageReflectionWisdom     LifeStage = "reflection_wisdom"
)

// StoryStyle is the survey code for the preferred way of storytelling.
type StoryStyle string

const (
	StoryStyleEmotional    StoryStyle = "emotional_touching"
	StoryStyleIntellectual StoryStyle = "intellectual_deep"
	StoryStyleSuspenseful  StoryStyle = "suspenseful_thrilling"
	StoryStyleRealistic    StoryStyle = "realistic_social"
	StoryStyleFantasy      StoryStyle = "fantasy_imaginative"
	StoryStyleHistorical   StoryStyle = "historical_cultural"
)

// ThemeCode is the survey code for a theme of interest.
type ThemeCode string

const (
	ThemeLoveRomance       ThemeCode = "love_romance"
	ThemeGrowthChange      ThemeCode = "growth_change"
	ThemeMysteryUnknown    ThemeCode = "mystery_unknown"
	ThemePhilosophyLife    ThemeCode = "philosophy_life"
	ThemeArtBeauty         ThemeCode = "art_beauty"
	ThemeScienceFuture     ThemeCode = "science_future"
	ThemeHistoryCulture    ThemeCode = "history_culture"
	ThemeNatureEnvironment ThemeCode = "nature_environment"
	ThemePsychologyHuman   ThemeCode = "psychology_human"
	ThemeSocietyPolitics   ThemeCode = "society_politics"
)
