package normalize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// categoryTitles maps every valid category code to its display name. It is the valid-code set.
var categoryTitles = map[string]string{
	"1":  "Film & Animation",
	"2":  "Autos & Vehicles",
	"10": "Music",
	"15": "Pets & Animals",
	"17": "Sports",
	"18": "Short Movies",
	"19": "Travel & Events",
	"20": "Gaming",
	"21": "Videoblogging",
	"22": "People & Blogs",
	"23": "Comedy",
	"24": "Entertainment",
	"25": "News & Politics",
	"26": "Howto & Style",
	"27": "Education",
	"28": "Science & Technology",
	"29": "Nonprofits & Activism",
	"30": "Movies",
	"31": "Anime/Animation",
	"32": "Action/Adventure",
	"33": "Classics",
	"34": "Comedy",
	"35": "Documentary",
	"36": "Drama",
	"37": "Family",
	"38": "Foreign",
	"39": "Horror",
	"40": "Sci-Fi/Fantasy",
	"41": "Thriller",
	"42": "Shorts",
	"43": "Shows",
	"44": "Trailers",
}

// categoryNames maps lowercase display names (English and Turkish upload-page labels) to codes.
var categoryNames = map[string]string{
	"autos & vehicles": "2", "cars & vehicles": "2",
	"film & animation": "1",
	"music":            "10",
	"pets & animals":   "15",
	"sports":           "17", "sport": "17",
	"short movies":    "18",
	"travel & events": "19",
	"gaming":          "20",
	"videoblogging":   "21",
	"people & blogs":  "22",
	"comedy":          "23",
	"entertainment":   "24",
	"news & politics": "25",
	"howto & style":   "26", "how-to & style": "26",
	"education":             "27",
	"science & technology":  "28",
	"nonprofits & activism": "29", "non-profits & activism": "29",
	"movies":           "30",
	"anime/animation":  "31",
	"action/adventure": "32",
	"classics":         "33",
	"documentary":      "35",
	"drama":            "36",
	"family":           "37",
	"foreign":          "38",
	"horror":           "39",
	"sci-fi/fantasy":   "40",
	"thriller":         "41",
	"shorts":           "42",
	"shows":            "43",
	"trailers":         "44",

	"araba & araçlar": "2", "arabalar & araçlar": "2", "otomobiller": "2",
	"film & animasyon": "1",
	"müzik":            "10",
	"evcil hayvanlar":  "15", "hayvanlar": "15",
	"spor":                  "17",
	"kısa filmler":          "18",
	"seyahat & etkinlikler": "19", "seyahat ve etkinlikler": "19",
	"oyun":               "20",
	"video günlükleri":   "21",
	"insanlar & bloglar": "22", "insanlar ve bloglar": "22",
	"komedi":  "23",
	"eğlence": "24", "eglence": "24",
	"haber & siyaset": "25", "haber ve siyaset": "25",
	"nasıl yapılır & stil": "26", "nasil yapilir & stil": "26",
	"eğitim": "27", "egitim": "27",
	"bilim & teknoloji": "28", "bilim ve teknoloji": "28",
	"kar amacı gütmeyenler & aktivizm": "29", "kar amaci gutmeyenler & aktivizm": "29",
	"filmler":         "30",
	"anime/animasyon": "31",
	"aksiyon/macera":  "32",
	"klasikler":       "33",
	"belgesel":        "35",
	"dram":            "36",
	"aile":            "37",
	"yabancı":         "38", "yabanci": "38",
	"korku":                 "39",
	"bilim kurgu/fantastik": "40",
	"gerilim":               "41",
	"kısa videolar":         "42",
	"programlar":            "43",
	"fragmanlar":            "44",
}

// CategoryInfo is one entry of the category table.
type CategoryInfo struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// Categories returns the category table sorted by numeric code.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(categoryTitles))
	for code, title := range categoryTitles {
		out = append(out, CategoryInfo{Code: code, Title: title})
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].Code)
		b, _ := strconv.Atoi(out[j].Code)
		return a < b
	})
	return out
}

// CategoryTitle returns the display name for a valid code.
func CategoryTitle(code string) (string, bool) {
	title, ok := categoryTitles[code]
	return title, ok
}

// ValidCategory reports whether code is in the valid-code set.
func ValidCategory(code string) bool {
	_, ok := categoryTitles[code]
	return ok
}

// Category resolves a loosely typed cell into a valid category code.
//
// Accepts integers, integral floats ("10.0", "10,0", 10.0) and display names
// in any case. Returns false for blanks, unknown names and codes outside the
// valid set; callers keep the current category in that case.
func Category(value any) (string, bool) {
	var s string
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		s = v
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		s = fmt.Sprint(v)
	}

	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "none":
		return "", false
	}

	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			s = strconv.FormatInt(int64(f), 10)
		}
	} else {
		code, ok := categoryNames[strings.ToLower(s)]
		if !ok {
			return "", false
		}
		s = code
	}

	if !ValidCategory(s) {
		return "", false
	}
	return s, true
}
