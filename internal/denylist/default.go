package denylist

// DefaultLists contains the built-in category lists.
var DefaultLists = Lists{
	Adult: []string{
		"pornhub.com",
		"xvideos.com",
		"xnxx.com",
		"redtube.com",
		"youporn.com",
		"xhamster.com",
		"brazzers.com",
		"chaturbate.com",
		"adultfriendfinder.com",
		"livejasmin.com",
		"cam4.com",
		"myfreecams.com",
		"spankbang.com",
		"youjizz.com",
		"tube8.com",
		"beeg.com",
		"sunporno.com",
		"eporner.com",
		"motherless.com",
		"redwap.com",
		"xtube.com",
		"cliphunter.com",
		"hclips.com",
		"xmoov.com",
		"kpopporno.com",
		"alohatube.com",
		"exporntoons.net",
		"4tube.com",
		"porn.com",
		"hentai.com",
	},
	Dating: []string{
		"tinder.com",
		"bumble.com",
		"match.com",
		"okcupid.com",
		"hinge.co",
		"grindr.com",
		"happn.com",
		"plentyoffish.com",
		"pof.com",
		"zoosk.com",
		"eharmony.com",
	},
	Gambling: []string{
		"bet365.com",
		"draftkings.com",
		"fanduel.com",
		"pokerstars.com",
		"bovada.lv",
		"betway.com",
		"williamhill.com",
		"888casino.com",
		"betfair.com",
		"ladbrokes.com",
	},
	Proxy: []string{
		"hidemyass.com",
		"nordvpn.com",
		"expressvpn.com",
		"protonvpn.com",
		"surfshark.com",
		"cyberghostvpn.com",
		"privateinternetaccess.com",
		"hotspotshield.com",
		"tunnelbear.com",
	},
	Gaming: []string{
		"twitch.tv",
		"steam.com",
		"epicgames.com",
		"roblox.com",
		"discord.com",
		"discord.gg",
		"battle.net",
		"minecraft.net",
		"fortnite.com",
	},
	Streaming: []string{
		"netflix.com",
		"hulu.com",
		"disneyplus.com",
		"primevideo.com",
		"hbodude.com",
		"hbomax.com",
		"max.com",
		"crunchyroll.com",
		"funimation.com",
	},
	Social: []string{
		"facebook.com",
		"instagram.com",
		"twitter.com",
		"x.com",
		"tiktok.com",
		"snapchat.com",
		"reddit.com",
		"pinterest.com",
		"linkedin.com",
		"tumblr.com",
	},
	Vital: []string{
		"twitter.com",
		"x.com",
		"t.co",
		"x.co",
	},
	Keywords: KeywordTiers{
		Light: []string{
			"porn",
			"xxx",
			"sex",
			"nude",
			"naked",
			"nsfw",
			"erotic",
			"hookup",
		},
		Strong: []string{
			"escort",
			"dating",
			"onlyfans",
			"strip club",
			"stripper",
			"cam show",
		},
		Strict: []string{
			"hot singles",
			"meet now",
			"cam girl",
			"live chat",
			"gambling",
			"betting",
			"casino",
		},
	},
}
