package advisor

const reviewSystemPrompt = "You are a labor law advisor who is specialized in labor law in Malaysia."

const reviewUserPrompt = `please review the attached employment contract and suggest sections that need to be amended so that it conforms to Malaysia employment law in following text, output them in Json object that consists of original text and recommended text; the key for original text is "original_text"., and key for recommended text is "recommended_text"; you should avoid capturing original texts that are title of a section, typically short wordings, less than 10 words, that ended with 2 new lines "\n\n" or colon or dash- "%s"`

const reviseSystemPrompt = "You are a labor law advisor specialized in Malaysian labor law. You're being asked to revise a specific clause from an employment contract to ensure it conforms to Malaysian employment law. Provide ONLY the revised text without any explanations or preamble."

const reviseUserPrompt = `Please review and revise the following employment contract clause to fully comply with Malaysian labor law. Return ONLY the revised text: "%s"`
