package service

import (
	"strings"

	"github.com/smartfarmer/backend/internal/domain"
)

// adviceCategory is a topic the offline responder can answer.
type adviceCategory string

const (
	categoryGreeting   adviceCategory = "greeting"
	categoryCrop       adviceCategory = "crop"
	categoryWeather    adviceCategory = "weather"
	categoryPest       adviceCategory = "pest"
	categorySoil       adviceCategory = "soil"
	categoryIrrigation adviceCategory = "irrigation"
	categoryFertilizer adviceCategory = "fertilizer"
	categoryGeneral    adviceCategory = "general"
)

// categoryKeywords is checked in order; the first category with any keyword
// contained in the lowercased message wins.
var categoryKeywords = []struct {
	category adviceCategory
	keywords []string
}{
	{categoryGreeting, []string{"hello", "hi", "नमस्ते", "ନମସ୍କାର"}},
	{categoryCrop, []string{"crop", "फसल", "ଫସଲ"}},
	{categoryWeather, []string{"weather", "मौसम", "ପାଣିପାଗ"}},
	{categoryPest, []string{"pest", "insect", "कीट", "କୀଟ", "ପୋକ"}},
	{categorySoil, []string{"soil", "मिट्टी", "ମାଟି"}},
	{categoryIrrigation, []string{"irrigat", "water", "सिंचाई", "पानी", "ଜଳସେଚନ", "ପାଣି"}},
	{categoryFertilizer, []string{"fertilizer", "fertiliser", "manure", "compost", "उर्वरक", "खाद", "ସାର"}},
}

var cannedResponses = map[domain.Language]map[adviceCategory]string{
	domain.LanguageEnglish: {
		categoryGreeting:   "Hello! I'm your farming assistant. How can I help you today?",
		categoryCrop:       "For crop-related questions, I recommend consulting with local agricultural experts or extension officers.",
		categoryWeather:    "Weather conditions are important for farming. Please check local weather forecasts regularly.",
		categoryPest:       "Monitor your crops regularly for signs of pests and diseases. Early detection is key!",
		categorySoil:       "Healthy soil is the base of a good harvest. Get your soil tested at the nearest soil testing laboratory and follow your Soil Health Card.",
		categoryIrrigation: "Based on current weather patterns, I recommend checking soil moisture levels before irrigation.",
		categoryFertilizer: "For better yield, consider using organic fertilizers and proper crop rotation techniques.",
		categoryGeneral:    "I apologize, but I'm having trouble connecting to my knowledge base. Please try again later or consult with local farming experts.",
	},
	domain.LanguageHindi: {
		categoryGreeting:   "नमस्ते! मैं आपका कृषि सहायक हूं। आज मैं आपकी कैसे मदद कर सकता हूं?",
		categoryCrop:       "फसल संबंधी प्रश्नों के लिए, मैं स्थानीय कृषि विशेषज्ञों या विस्तार अधिकारियों से सलाह लेने की सलाह देता हूं।",
		categoryWeather:    "मौसम की स्थिति खेती के लिए महत्वपूर्ण है। कृपया नियमित रूप से स्थानीय मौसम पूर्वानुमान देखें।",
		categoryPest:       "कीटों और बीमारियों के लक्षणों के लिए अपनी फसलों की नियमित निगरानी करें। शीघ्र पता लगाना महत्वपूर्ण है!",
		categorySoil:       "स्वस्थ मिट्टी अच्छी फसल की नींव है। निकटतम मृदा परीक्षण प्रयोगशाला में अपनी मिट्टी की जांच कराएं और मृदा स्वास्थ्य कार्ड का पालन करें।",
		categoryIrrigation: "वर्तमान मौसम पैटर्न के आधार पर, मैं सिंचाई से पहले मिट्टी की नमी के स्तर की जांच करने की सलाह देता हूं।",
		categoryFertilizer: "बेहतर उपज के लिए, जैविक उर्वरकों और उचित फसल चक्र तकनीकों का उपयोग करने पर विचार करें।",
		categoryGeneral:    "मुझे खुशी है, लेकिन मुझे अपने ज्ञान आधार से जुड़ने में परेशानी हो रही है। कृपया बाद में पुनः प्रयास करें।",
	},
	domain.LanguageOdia: {
		categoryGreeting:   "ନମସ୍କାର! ମୁଁ ଆପଣଙ୍କର କୃଷି ସହାୟକ। ଆଜି ମୁଁ ଆପଣଙ୍କୁ କିପରି ସାହାଯ୍ୟ କରିପାରିବି?",
		categoryCrop:       "ଫସଲ ସମ୍ବନ୍ଧୀୟ ପ୍ରଶ୍ନ ପାଇଁ, ମୁଁ ସ୍ଥାନୀୟ କୃଷି ବିଶେଷଜ୍ଞ କିମ୍ବା ସମ୍ପ୍ରସାରଣ ଅଧିକାରୀଙ୍କ ସହିତ ପରାମର୍ଶ କରିବାକୁ ପରାମର୍ଶ ଦେଉଛି।",
		categoryWeather:    "ଚାଷ ପାଇଁ ପାଣିପାଗ ଅବସ୍ଥା ଗୁରୁତ୍ୱପୂର୍ଣ୍ଣ। ଦୟାକରି ନିୟମିତ ସ୍ଥାନୀୟ ପାଣିପାଗ ପୂର୍ବାନୁମାନ ଯାଞ୍ଚ କରନ୍ତୁ।",
		categoryPest:       "କୀଟପତଙ୍ଗ ଏବଂ ରୋଗର ଚିହ୍ନ ପାଇଁ ନିୟମିତ ଭାବରେ ଆପଣଙ୍କ ଫସଲଗୁଡିକ ମନିଟର୍ କରନ୍ତୁ। ପ୍ରାରମ୍ଭିକ ଚିହ୍ନଟ ଗୁରୁତ୍ୱପୂର୍ଣ୍ଣ!",
		categorySoil:       "ସୁସ୍ଥ ମାଟି ଭଲ ଅମଳର ମୂଳଦୁଆ। ନିକଟସ୍ଥ ମୃତ୍ତିକା ପରୀକ୍ଷଣ ଗବେଷଣାଗାରରେ ମାଟି ପରୀକ୍ଷା କରାନ୍ତୁ ଏବଂ ମୃତ୍ତିକା ସ୍ୱାସ୍ଥ୍ୟ କାର୍ଡ ଅନୁସରଣ କରନ୍ତୁ।",
		categoryIrrigation: "ବର୍ତ୍ତମାନର ପାଣିପାଗ ପ୍ୟାଟର୍ନ ଉପରେ ଆଧାର କରି, ଜଳସେଚନ ପୂର୍ବରୁ ମାଟିର ଆର୍ଦ୍ରତା ସ୍ତର ଯାଞ୍ଚ କରିବାକୁ ମୁଁ ପରାମର୍ଶ ଦେଉଛି।",
		categoryFertilizer: "ଉନ୍ନତ ଉତ୍ପାଦନ ପାଇଁ, ଜୈବିକ ସାର ଏବଂ ଉପଯୁକ୍ତ ଫସଲ ଆବର୍ତ୍ତନ କୌଶଳ ବ୍ୟବହାର କରିବାକୁ ବିଚାର କରନ୍ତୁ।",
		categoryGeneral:    "ମୁଁ ଦୁଃଖିତ, କିନ୍ତୁ ମୋର ଜ୍ଞାନ ଆଧାର ସହିତ ସଂଯୋଗ କରିବାରେ ଅସୁବିଧା ହେଉଛି। ଦୟାକରି ପରେ ପୁନର୍ବାର ଚେଷ୍ଟା କରନ୍ତୁ।",
	},
}

// classifyMessage returns the first category whose keyword appears anywhere in
// the message. Matching is by substring, so "which" counts as a greeting.
func classifyMessage(message string) adviceCategory {
	lower := strings.ToLower(message)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return categoryGeneral
}

// FallbackResponse selects the canned reply for a message in the given language.
func FallbackResponse(message string, lang domain.Language) string {
	responses, ok := cannedResponses[lang]
	if !ok {
		responses = cannedResponses[domain.LanguageEnglish]
	}
	return responses[classifyMessage(message)]
}
