package domain

// Intensity is the perceived projection strength of a fragrance.
type Intensity string

const (
	IntensityLight  Intensity = "light"
	IntensityMedium Intensity = "medium"
	IntensityStrong Intensity = "strong"
)

// Valid reports whether the intensity is one of the known levels.
func (i Intensity) Valid() bool {
	switch i {
	case IntensityLight, IntensityMedium, IntensityStrong:
		return true
	default:
		return false
	}
}

// Category is the olfactive family of a fragrance.
type Category string

const (
	CategoryCitrus   Category = "시트러스"
	CategoryFloral   Category = "플로럴"
	CategoryWoody    Category = "우디"
	CategoryMusk     Category = "머스크"
	CategoryFruity   Category = "프루티"
	CategorySpicy    Category = "스파이시"
	CategoryHerbal   Category = "허브/아로마틱"
	CategoryLeather  Category = "레더"
	CategoryAquatic  Category = "아쿠아틱"
	CategoryOriental Category = "오리엔탈"
)

// Valid reports whether the category belongs to the known families.
func (c Category) Valid() bool {
	switch c {
	case CategoryCitrus, CategoryFloral, CategoryWoody, CategoryMusk, CategoryFruity,
		CategorySpicy, CategoryHerbal, CategoryLeather, CategoryAquatic, CategoryOriental:
		return true
	default:
		return false
	}
}

// Characteristics holds six independent 0-10 note intensities. They do not sum to a fixed total.
type Characteristics struct {
	Citrus int
	Floral int
	Woody  int
	Musk   int
	Fruity int
	Spicy  int
}

// Values returns the characteristics in declaration order.
func (c Characteristics) Values() [6]int {
	return [6]int{c.Citrus, c.Floral, c.Woody, c.Musk, c.Fruity, c.Spicy}
}

// Book is an immutable catalog entry.
type Book struct {
	ID          int
	Title       string
	Author      string
	Genre       string
	Description string
	Themes      []string
	Quote       string
	Speaker     string
	Keywords    []string
}

// Fragrance is the literary fragrance paired with exactly one book through BookID.
type Fragrance struct {
	ID              int
	BookID          int
	LiteraryName    string
	BaseScent       string
	Description     string
	Category        Category
	Intensity       Intensity
	Mood            []string
	Characteristics Characteristics
}

// Pair couples a book with its fixed fragrance.
type Pair struct {
	Book      Book
	Fragrance Fragrance
}
