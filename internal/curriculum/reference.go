package curriculum

// Phonetics is the pronunciation guide sent to AI collaborators.
const Phonetics = `Nalibo Phonetics (Official Guide):
- A: /a/, E: /e/, I: /i/, O: /o/, U: /u/, Ă: /aʊ/ (Au), Ė: /eʊ/ (Eu).
- Consonants: Ç /tʃ/ (ch), Ş /ʃ/ (sh), Þ /θ/ (th), Ñ /ɲ/ (ny), Ż /ʒ/ (zh), Ř /ɹ/ (American R), Ķ /kl̥/ (voiceless kl), Ń /ŋ/ (ng).
- Glottal Stop: Ø /ʔ/.
- Stress: Second to last syllable unless marked (à, è, ì, ò, ù).
- Silent: 'x' is the only silent letter. No mergers between words.
`

// GrammarSummary is the grammar reference sent to AI collaborators.
const GrammarSummary = `Nalibo Grammar Rules (From Official Guide):
1. Sentence Order: Always SVO (Subject Verb Object).
2. Adjective Order: Nouns first, then properties (e.g., "Ge libre roçe" = The red book).
3. Article: "Ge" is the only article (The/A).
4. Particles: La (Subject), Ma (Action/Location), O (And), A (To), Aba (Or), Tama (But), Ba (Also), Xume (With).
   * Particles go AFTER the word they mark.
   * "Ma" and "La" can be dropped in casual speech.
5. Gender: Living things use -a (Male), -o (Female), -e (Neutral). Objects are always neutral.
6. Plural: Add suffix "-ji". Drop gendered ending before adding -ji for groups of mixed gender (e.g. Parenji).
7. Tense:
   * Present: suffix "-'lam".
   * Past: suffix "-ka" (casual) or auxiliary "Habid" (formal).
   * Future: suffix "-ke" (casual) or auxiliary "Habied" (formal).
8. Possession: Attach "'on" (e.g., Li'on = My).
`
