package ai

import (
	"fmt"
	"strings"

	"qadamsafe/internal/models"
)

// ScenarioRequest - что просят сгенерировать.
type ScenarioRequest struct {
	Type       models.ScenarioType
	Language   string
	Difficulty models.Difficulty
}

const scenarioSystemPrompt = `Ты автор обучающих сценариев по кибербезопасности для жителей Казахстана.
Сценарий - короткая интерактивная история, в которой пользователь сталкивается с мошенничеством
и должен принять безопасное решение.

Верни ТОЛЬКО JSON объект без markdown со следующими полями:
{
  "title": string, "titleEn": string, "titleKk": string,
  "description": string, "descriptionEn": string, "descriptionKk": string,
  "steps": [
    {
      "id": "step1",
      "type": "information" | "question" | "decision",
      "content": string,
      "context": string,
      "question": string,
      "visualType": "phone" | "text",
      "phoneMessageType": "sms" | "whatsapp" | "telegram" | "call",
      "senderName": string, "senderNumber": string, "messageText": string,
      "nextStepId": string,
      "options": [
        {
          "id": "a",
          "text": string,
          "outcomeType": "safe" | "risky" | "dangerous",
          "explanation": string,
          "nextStepId": string
        }
      ]
    }
  ],
  "completionBlock": { "title": string, "message": string, "tips": [string] }
}

Правила:
- от 3 до 10 шагов, у шагов question и decision от 2 до 4 вариантов;
- у шагов information нет вариантов;
- хотя бы один вариант в каждом вопросе безопасный (safe);
- nextStepId ссылается только на существующие шаги, без циклов;
- объяснения короткие и конкретные, без упоминания что это тест.`

var topicPrompts = map[models.ScenarioType]string{
	models.ScenarioEmailPhishing:     "Фишинговое письмо от имени банка, госоргана или сервиса доставки со ссылкой на поддельный сайт.",
	models.ScenarioSMSPhishing:       "SMS-фишинг: сообщение о блокировке карты, выигрыше или посылке со ссылкой или просьбой перезвонить.",
	models.ScenarioPhoneScam:         "Телефонный мошенник представляется сотрудником банка или полиции и выманивает код из SMS.",
	models.ScenarioSocialEngineering: "Социальная инженерия: знакомый или коллега в мессенджере просит срочно перевести деньги или код.",
	models.ScenarioFakeWebsite:       "Поддельный сайт интернет-магазина или госуслуг, который собирает данные карты.",
	models.ScenarioWhatsAppScam:      "Мошенничество в WhatsApp: взломанный аккаунт родственника, просьба о помощи, фальшивые опросы.",
	models.ScenarioInvestmentScam:    "Инвестиционная схема с гарантированным доходом, криптовалютой и давлением сроками.",
	models.ScenarioJobScam:           "Фальшивая вакансия с удаленной работой, требующая предоплату или данные карты.",
	models.ScenarioLotteryScam:       "Сообщение о выигрыше в лотерее или розыгрыше, для получения которого нужно оплатить комиссию.",
	models.ScenarioRomanceScam:       "Романтический мошенник из соцсети после долгой переписки просит деньги на билет или лечение.",
}

var languageNames = map[string]string{
	models.LanguageRU: "русский",
	models.LanguageEN: "английский",
	models.LanguageKK: "казахский",
}

var difficultyHints = map[models.Difficulty]string{
	models.DifficultyBeginner:     "Сложность: начальная, признаки обмана заметные.",
	models.DifficultyIntermediate: "Сложность: средняя, часть признаков скрыта.",
	models.DifficultyAdvanced:     "Сложность: высокая, мошенник правдоподобен и использует реальные детали.",
	models.DifficultyExpert:       "Сложность: экспертная, почти все выглядит легитимно, есть ветвления.",
}

// BuildScenarioPrompt возвращает системный промт и запрос пользователя.
func BuildScenarioPrompt(req ScenarioRequest) (string, string) {
	topic, ok := topicPrompts[req.Type]
	if !ok {
		topic = topicPrompts[models.ScenarioSocialEngineering]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Создай сценарий по теме:\n\n%s\n\nКонтекст: Казахстан.", topic)
	if lang, ok := languageNames[req.Language]; ok {
		fmt.Fprintf(&b, "\nОсновной язык сценария: %s.", lang)
	}
	if hint, ok := difficultyHints[req.Difficulty]; ok {
		b.WriteString("\n" + hint)
	}
	b.WriteString("\n\nСтруктуру, число шагов, тип шагов и визуал выбирай сам, чтобы сценарий отличался от типичных. Верни ТОЛЬКО JSON.")
	return scenarioSystemPrompt, b.String()
}
