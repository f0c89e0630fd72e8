package divergence

// stopWords holds short function words for the Latin, Cyrillic and Greek
// catalog languages. Entries pass through Normalize when the set is built.
// Part of policy version 3.
var stopWords = buildStopWords(
	// English
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "can", "could", "for", "from",
	"had", "has", "have", "he", "her", "him", "how", "i", "in", "is", "it", "its", "may",
	"me", "might", "must", "my", "of", "on", "or", "our", "shall", "she", "should", "that",
	"the", "them", "they", "this", "to", "us", "was", "we", "what", "when", "where", "which",
	"who", "why", "will", "with", "would", "you", "your",
	// German
	"der", "die", "das", "den", "dem", "des", "ein", "eine", "einen", "einem", "einer",
	"und", "oder", "ist", "sind", "zu", "mit", "von", "im", "auf", "für", "ich", "du", "er",
	"es", "wir", "ihr", "sie", "nicht",
	// French
	"le", "la", "les", "un", "une", "des", "du", "de", "et", "est", "sont", "à", "au", "aux",
	"ce", "il", "elle", "nous", "vous", "ils", "elles", "je", "tu", "que", "qui", "en", "pour",
	"pas", "sur", "dans",
	// Spanish and Portuguese
	"el", "los", "las", "una", "uno", "y", "o", "es", "son", "con", "por", "para", "del",
	"al", "lo", "se", "su", "sus", "no", "os", "as", "um", "uma", "e", "é", "do", "da", "dos",
	"das", "na", "no", "em", "com",
	// Italian
	"il", "gli", "di", "che", "non", "sono", "nel", "nella", "per",
	// Dutch
	"het", "een", "en", "van", "is", "op", "te", "dat", "zijn", "niet",
	// Scandinavian
	"och", "att", "är", "og", "at", "er", "ikke", "det", "som", "på", "af", "av", "för", "til",
	"till",
	// Russian
	"и", "в", "во", "не", "что", "он", "на", "я", "с", "со", "как", "а", "то", "все", "она",
	"так", "его", "но", "да", "ты", "к", "у", "же", "вы", "за", "бы", "по", "только", "ее",
	"мне", "было", "вот", "от", "меня", "еще", "нет", "о", "из", "ему", "это", "для",
	// Ukrainian
	"і", "й", "та", "з", "із", "що", "це", "як", "до", "від", "але", "або", "ми", "ви",
	"він", "вона", "вони", "ти", "є",
	// Bulgarian
	"се", "е", "са", "че", "към", "това", "той", "тя", "те", "аз", "ние", "вие", "ще", "съм",
	// Greek
	"ο", "η", "το", "οι", "τα", "του", "της", "των", "τον", "την", "τους", "τις", "και", "να",
	"σε", "με", "για", "από", "είναι", "δεν", "που", "θα", "ένα", "μια", "ως", "αλλά", "στο",
	"στη", "στην", "στον",
)

func buildStopWords(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[Normalize(word)] = struct{}{}
	}
	return set
}

func isStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}
