package entities

import "github.com/azure/discussion-insights/internal/models"

// defaultLexicon holds frequently discussed names keyed by normalized text
var defaultLexicon = map[string]models.EntityType{
	"openai":                    models.EntityOrganization,
	"anthropic":                 models.EntityOrganization,
	"google":                    models.EntityOrganization,
	"alphabet":                  models.EntityOrganization,
	"microsoft":                 models.EntityOrganization,
	"apple":                     models.EntityOrganization,
	"amazon":                    models.EntityOrganization,
	"meta":                      models.EntityOrganization,
	"facebook":                  models.EntityOrganization,
	"netflix":                   models.EntityOrganization,
	"nvidia":                    models.EntityOrganization,
	"tesla":                     models.EntityOrganization,
	"spacex":                    models.EntityOrganization,
	"twitter":                   models.EntityOrganization,
	"reddit":                    models.EntityOrganization,
	"youtube":                   models.EntityOrganization,
	"intel":                     models.EntityOrganization,
	"ibm":                       models.EntityOrganization,
	"oracle":                    models.EntityOrganization,
	"samsung":                   models.EntityOrganization,
	"sony":                      models.EntityOrganization,
	"github":                    models.EntityOrganization,
	"nasa":                      models.EntityOrganization,
	"fbi":                       models.EntityOrganization,
	"united nations":            models.EntityOrganization,
	"european union":            models.EntityOrganization,
	"world health organization": models.EntityOrganization,
	"elon musk":                 models.EntityPerson,
	"sam altman":                models.EntityPerson,
	"bill gates":                models.EntityPerson,
	"satya nadella":             models.EntityPerson,
	"tim cook":                  models.EntityPerson,
	"jeff bezos":                models.EntityPerson,
	"mark zuckerberg":           models.EntityPerson,
	"sundar pichai":             models.EntityPerson,
}

// locations is a small gazetteer of countries, regions and large cities
var locations = map[string]bool{
	"usa": true, "us": true, "uk": true, "eu": true, "uae": true,
	"united states": true, "united kingdom": true, "america": true, "europe": true, "asia": true,
	"africa": true, "canada": true, "mexico": true, "brazil": true, "argentina": true,
	"germany": true, "france": true, "spain": true, "italy": true, "portugal": true,
	"netherlands": true, "sweden": true, "norway": true, "poland": true, "ukraine": true,
	"russia": true, "china": true, "japan": true, "korea": true, "south korea": true,
	"north korea": true, "india": true, "pakistan": true, "australia": true, "new zealand": true,
	"israel": true, "iran": true, "turkey": true, "egypt": true, "nigeria": true,
	"taiwan": true, "singapore": true, "ireland": true, "switzerland": true, "austria": true,
	"london": true, "paris": true, "berlin": true, "madrid": true, "rome": true,
	"tokyo": true, "beijing": true, "shanghai": true, "moscow": true, "kyiv": true,
	"new york": true, "new york city": true, "los angeles": true, "san francisco": true, "chicago": true,
	"seattle": true, "boston": true, "texas": true, "california": true, "florida": true,
	"washington": true, "toronto": true, "vancouver": true, "sydney": true, "dubai": true,
	"silicon valley": true,
}

var orgSuffixes = map[string]bool{
	"inc": true, "corp": true, "corporation": true, "llc": true, "ltd": true,
	"co": true, "company": true, "group": true, "labs": true, "technologies": true,
	"university": true, "foundation": true, "institute": true, "bank": true, "airlines": true,
	"motors": true, "studios": true, "games": true, "systems": true, "association": true,
	"party": true, "agency": true, "department": true, "council": true, "post": true,
	"times": true, "news": true, "journal": true, "federation": true, "club": true,
}

var titles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sir": true, "president": true, "senator": true, "governor": true, "ceo": true,
	"minister": true, "judge": true, "mayor": true, "king": true, "queen": true,
}

var connectors = map[string]bool{
	"of": true, "de": true, "la": true, "van": true, "von": true, "der": true, "del": true,
}

var locationPrepositions = map[string]bool{
	"in": true, "from": true, "near": true,
}

// commonWords are capitalized at sentence starts far more often than they name anything
var commonWords = map[string]bool{
	"the": true, "a": true, "an": true, "i": true, "i'm": true, "i've": true, "i'd": true,
	"this": true, "that": true, "these": true, "those": true, "it": true, "its": true,
	"my": true, "we": true, "you": true, "he": true, "she": true, "they": true,
	"if": true, "but": true, "and": true, "or": true, "so": true, "what": true,
	"when": true, "where": true, "why": true, "how": true, "who": true, "yes": true,
	"no": true, "edit": true, "also": true, "just": true, "not": true, "is": true,
	"are": true, "was": true, "do": true, "does": true, "did": true, "there": true,
	"here": true, "in": true, "on": true, "at": true, "for": true, "with": true,
	"as": true, "thanks": true, "thank": true, "well": true, "oh": true, "maybe": true,
	"because": true, "then": true, "now": true, "all": true, "some": true, "any": true,
	"our": true, "your": true, "their": true, "his": true, "her": true, "hey": true,
	"hi": true, "yeah": true, "today": true, "yesterday": true, "tomorrow": true,
	"honestly": true, "actually": true, "sure": true, "great": true, "good": true,
	"nice": true, "wow": true, "after": true, "before": true,
	"update": true, "source": true, "note": true, "agreed": true, "exactly": true,
}

// acronymStopwords are all-caps tokens that are internet shorthand, not names
var acronymStopwords = map[string]bool{
	"OK": true, "LOL": true, "LMAO": true, "TL": true, "DR": true, "TLDR": true,
	"IMO": true, "IMHO": true, "TIL": true, "AMA": true, "ELI5": true, "EDIT": true,
	"FYI": true, "OP": true, "IIRC": true, "AFAIK": true, "BTW": true, "WTF": true,
	"OMG": true, "PS": true, "YES": true, "NO": true, "NOT": true, "THE": true,
	"AND": true, "AM": true, "PM": true, "TV": true, "PC": true, "ID": true,
	"AI": true, "API": true, "CEO": true, "USD": true, "EUR": true, "FAQ": true,
	"ETA": true, "DIY": true, "IT": true, "IS": true, "IN": true, "OF": true,
}
